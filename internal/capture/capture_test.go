package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/tindervale/babelglass/internal/ocr"
)

func TestDecodePNGFrameProducesRGBAOfExpectedSize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	frame, err := decodePNGFrame(buf.Bytes())
	if err != nil {
		t.Fatalf("decodePNGFrame: %v", err)
	}
	if frame.Width != 3 || frame.Height != 2 {
		t.Fatalf("got %dx%d, want 3x2", frame.Width, frame.Height)
	}
	if len(frame.RGBA) != 3*2*4 {
		t.Fatalf("got %d bytes, want %d", len(frame.RGBA), 3*2*4)
	}
}

func TestDecodePNGFrameRejectsGarbage(t *testing.T) {
	if _, err := decodePNGFrame([]byte("not a png")); err == nil {
		t.Fatalf("expected error decoding non-PNG data")
	}
}

func TestScreenshotCommandIncludesRegion(t *testing.T) {
	name, args := screenshotCommand(ocr.Rect{X: 1, Y: 2, W: 3, H: 4})
	if name == "" {
		t.Fatalf("expected non-empty command name")
	}
	for _, a := range args {
		if a == "1,2,3,4" {
			return
		}
	}
	t.Fatalf("expected region 1,2,3,4 in args, got %v", args)
}
