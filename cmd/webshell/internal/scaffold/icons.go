package scaffold

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// IconSource is the conventional location of the source launcher icon,
// relative to the project root.
const IconSource = "resources/icon.png"

var androidIconSizes = []struct {
	density string
	size    int
}{
	{"mdpi", 48},
	{"hdpi", 72},
	{"xhdpi", 96},
	{"xxhdpi", 144},
	{"xxxhdpi", 192},
}

const iosIconSize = 1024

// LoadIcon decodes the project's source icon. It returns nil without error
// when the project has none.
func LoadIcon(projectRoot string) (image.Image, error) {
	path := filepath.Join(projectRoot, filepath.FromSlash(IconSource))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", IconSource, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", IconSource, err)
	}
	b := img.Bounds()
	if b.Dx() != b.Dy() {
		return nil, fmt.Errorf("%s must be square (got %dx%d)", IconSource, b.Dx(), b.Dy())
	}
	return img, nil
}

// WriteIcons renders src at every size the platform needs.
func WriteIcons(platform, projectDir string, src image.Image) error {
	switch platform {
	case Android:
		resDir := filepath.Join(AndroidSourceDir(projectDir), "res")
		for _, s := range androidIconSizes {
			dest := filepath.Join(resDir, "mipmap-"+s.density, "ic_launcher.png")
			if err := writeScaledPNG(dest, src, s.size); err != nil {
				return err
			}
		}
		return nil
	case IOS:
		setDir := filepath.Join(IOSAppDir(projectDir), "Assets.xcassets", "AppIcon.appiconset")
		if err := writeScaledPNG(filepath.Join(setDir, "icon-1024.png"), src, iosIconSize); err != nil {
			return err
		}
		return writeIconContents(setDir)
	default:
		return fmt.Errorf("unknown platform %q", platform)
	}
}

func writeScaledPNG(dest string, src image.Image, size int) error {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", dest, err)
	}
	return f.Close()
}

func writeIconContents(setDir string) error {
	contents := map[string]any{
		"images": []map[string]string{{
			"filename": "icon-1024.png",
			"idiom":    "universal",
			"platform": "ios",
			"size":     "1024x1024",
		}},
		"info": map[string]any{"author": "webshell", "version": 1},
	}
	data, err := json.MarshalIndent(contents, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(setDir, "Contents.json"), data, 0o644)
}
