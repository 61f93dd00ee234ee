package simulator

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

const previewScale = 8

// colorFor derives a stable colour from the seed and sample index.
func colorFor(seed int64, sample int) color.RGBA {
	v := uint64(seed)*2654435761 + uint64(sample)*40503

	return color.RGBA{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), A: 0xFF}
}

// dim fades c towards black for early denoising steps.
func dim(c color.RGBA, step, steps int) color.RGBA {
	if steps <= 0 {
		return c
	}

	scale := func(v uint8) uint8 { return uint8(int(v) * (step + 1) / (steps + 1)) }

	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: 0xFF}
}

// solid returns a one colour paletted image, cheap to encode at full size.
func solid(width, height int, c color.Color) *image.Paletted {
	return image.NewPaletted(image.Rect(0, 0, width, height), color.Palette{c})
}

func renderPNG(width, height int, c color.Color) ([]byte, error) {
	var buf bytes.Buffer

	err := png.Encode(&buf, solid(width, height, c))
	if err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	return buf.Bytes(), nil
}

func renderJPEG(width, height int, c color.Color) ([]byte, error) {
	var buf bytes.Buffer

	err := jpeg.Encode(&buf, solid(max(width/previewScale, 1), max(height/previewScale, 1), c), &jpeg.Options{Quality: 60})
	if err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}
