// Package capture implements the two input adapters a P1/P2 task consumes:
// Selector (reading the OS clipboard for a prior selection) and
// ScreenGrabber (rasterizing a screen region to a Frame for OCR). Grounded
// on the teacher pack's subprocess-capture pattern (context-scoped
// exec.CommandContext invocation of an external capture tool, e.g.
// other_examples' ephemeris-engine capture.Runner.rtlCapture) — screen and
// clipboard capture on desktop platforms has no portable syscall surface,
// so both adapters shell out to a platform utility the same way that
// pattern shells out to rtl_fm.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"runtime"

	"github.com/tindervale/babelglass/internal/ocr"
)

// Selector reads the current clipboard text, used when the user has
// already copied a selection before invoking translation.
type Selector interface {
	ReadText(ctx context.Context) (string, error)
}

// ScreenGrabber rasterizes a screen region into an ocr.Frame. GrabROI
// accepts any ROI shape (Rect, Polygon, Perspective), rectifying
// non-rectangular ones before returning.
type ScreenGrabber interface {
	Grab(ctx context.Context, rect ocr.Rect) (ocr.Frame, error)
	GrabROI(ctx context.Context, roi any) (ocr.Frame, error)
}

// ClipboardSelector shells out to the platform clipboard reader.
type ClipboardSelector struct{}

// NewClipboardSelector creates a Selector for the current OS.
func NewClipboardSelector() *ClipboardSelector {
	return &ClipboardSelector{}
}

// ReadText invokes the platform clipboard-paste utility and returns its
// stdout as the selected text.
func (c *ClipboardSelector) ReadText(ctx context.Context) (string, error) {
	name, args := clipboardCommand()
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("capture: clipboard read: %w", err)
	}
	return string(out), nil
}

func clipboardCommand() (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "pbpaste", nil
	case "windows":
		return "powershell", []string{"-command", "Get-Clipboard"}
	default:
		return "wl-paste", nil
	}
}

// ScreenshotGrabber shells out to the platform screenshot utility, capturing
// a rectangle to a PNG and decoding it into an ocr.Frame.
type ScreenshotGrabber struct{}

// NewScreenshotGrabber creates a ScreenGrabber for the current OS.
func NewScreenshotGrabber() *ScreenshotGrabber {
	return &ScreenshotGrabber{}
}

// Grab captures rect and returns it as an ocr.Frame.
func (g *ScreenshotGrabber) Grab(ctx context.Context, rect ocr.Rect) (ocr.Frame, error) {
	name, args := screenshotCommand(rect)
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		return ocr.Frame{}, fmt.Errorf("capture: screenshot: %w", err)
	}
	return decodePNGFrame(out)
}

// GrabROI captures the axis-aligned region enclosing roi and, for a
// Polygon or Perspective ROI, rectifies it into an upright frame — a
// Polygon rectifies to its own bounding-box size, a Perspective to its
// explicit Target size.
func (g *ScreenshotGrabber) GrabROI(ctx context.Context, roi any) (ocr.Frame, error) {
	bound, ok := ocr.BoundingRect(roi)
	if !ok {
		return ocr.Frame{}, fmt.Errorf("capture: unsupported roi type %T", roi)
	}
	frame, err := g.Grab(ctx, bound)
	if err != nil {
		return ocr.Frame{}, err
	}
	switch v := roi.(type) {
	case ocr.Polygon:
		return ocr.RectifyPolygon(frame, v, bound, ocr.Rect{W: bound.W, H: bound.H}), nil
	case ocr.Perspective:
		return ocr.RectifyPolygon(frame, v.Polygon, bound, v.Target), nil
	default:
		return frame, nil
	}
}

func screenshotCommand(rect ocr.Rect) (string, []string) {
	region := fmt.Sprintf("%d,%d,%d,%d", rect.X, rect.Y, rect.W, rect.H)
	switch runtime.GOOS {
	case "darwin":
		return "screencapture", []string{"-R", region, "-t", "png", "-"}
	case "windows":
		// Delegated to a small helper script on PATH; Windows has no
		// built-in region-screenshot CLI.
		return "babelglass-winshot.exe", []string{region}
	default:
		return "grim", []string{"-g", region, "-"}
	}
}

func decodePNGFrame(data []byte) (ocr.Frame, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return ocr.Frame{}, fmt.Errorf("capture: decode png: %w", err)
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return ocr.Frame{Width: bounds.Dx(), Height: bounds.Dy(), RGBA: rgba.Pix}, nil
}
