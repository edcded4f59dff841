// Package imageio adapts the registration core's float64 matrices to
// actual image files: decoding a burst of images into a pixel-type-
// tagged stack, and encoding debug artifacts back out as PNG.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/lowrr-go/internal/pixel"
	"github.com/cwbudde/lowrr-go/internal/registration"
)

// Stack is a decoded, dimension-checked burst of images, ready for
// registration.Run.
type Stack struct {
	Images []*mat.Dense
	Width  int
	Height int
	Kind   pixel.Kind
	Paths  []string
}

// ExpandPaths resolves a list of glob patterns into a sorted, deduplicated
// list of file paths. Each pattern that matches nothing is an error, so a
// typo in a path doesn't silently shrink the input stack.
func ExpandPaths(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("pattern %q matched no files", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// LoadStack decodes every path into a float64 matrix (the green channel
// for multi-channel sources), verifying every image shares the same pixel
// kind and dimensions (spec.md §3 Input/Output, §7 InvalidInput).
func LoadStack(paths []string) (*Stack, error) {
	if len(paths) == 0 {
		return nil, &registration.InvalidInputError{Msg: "no input images"}
	}

	stack := &Stack{Paths: paths}
	for i, path := range paths {
		img, kind, err := decodeOne(path)
		if err != nil {
			return nil, &registration.InvalidInputError{Msg: fmt.Sprintf("decoding %s: %v", path, err)}
		}
		h, w := img.Dims()
		if i == 0 {
			stack.Width, stack.Height, stack.Kind = w, h, kind
		} else {
			if kind != stack.Kind {
				return nil, &registration.InvalidInputError{
					Msg: fmt.Sprintf("%s is %s, but %s was %s", path, kind, paths[0], stack.Kind),
				}
			}
			if w != stack.Width || h != stack.Height {
				return nil, &registration.InvalidInputError{
					Msg: fmt.Sprintf("%s is %dx%d, but %s was %dx%d", path, w, h, paths[0], stack.Width, stack.Height),
				}
			}
		}
		stack.Images = append(stack.Images, img)
	}
	return stack, nil
}

// decodeOne loads a single image and extracts a float64 luminance matrix:
// the sample itself for single-channel Gray/Gray16 sources, the green
// channel otherwise (spec.md §3's single-channel input assumption,
// generalized so ordinary RGB photos work without a separate conversion
// step).
func decodeOne(path string) (*mat.Dense, pixel.Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := mat.NewDense(h, w, nil)

	if gray16, ok := img.(*image.Gray16); ok {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(y, x, float64(gray16.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
		return out, pixel.Gray16, nil
	}

	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				_, g, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				out.Set(y, x, float64(g))
			}
		}
		return out, pixel.Gray16, nil
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_, g, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.Set(y, x, float64(g>>8))
		}
	}
	return out, pixel.Gray8, nil
}

// SavePNG writes m as an 8-bit grayscale PNG, scaling by imageMax and
// saturating to kind's representable range (spec.md §4.3). Uses the
// temp-file-then-rename pattern so a crash mid-write never leaves a
// truncated artifact behind.
func SavePNG(path string, m *mat.Dense, kind pixel.Kind, imageMax float64) error {
	h, w := m.Dims()
	img := image.NewGray(image.Rect(0, 0, w, h))
	scale := 255 / imageMax
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := kind.Saturate(m.At(y, x)) * scale
			if v > 255 {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".imageio-tmp-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
