package screen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
)

// DisplayStrategy grabs the bounding union of every active display in memory.
type DisplayStrategy struct{}

func (DisplayStrategy) Name() string { return "display" }

func (DisplayStrategy) Capture(ctx context.Context) ([]byte, error) {
	img, err := captureUnion()
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}

func captureUnion() (*image.RGBA, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	img, err := screenshot.CaptureRect(union)
	if err != nil {
		return nil, fmt.Errorf("capture %v: %w", union, err)
	}
	return img, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
