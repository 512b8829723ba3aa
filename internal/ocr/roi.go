package ocr

// TaskPayload is one pending OCR capture request handed from the UI
// dispatcher to a P2 task: the request id reported in the ocr-started and
// ocr-complete events, and the ROI to capture. The request id is not
// carried into the P1 translate task that follows, so the translate-complete
// event has no request id.
type TaskPayload struct {
	RequestID string
	// ROI is a Rect, Polygon, or Perspective.
	ROI any
}

func (p Polygon) boundingRect() Rect {
	minX, minY := p.Vertices[0].X, p.Vertices[0].Y
	maxX, maxY := minX, minY
	for _, v := range p.Vertices[1:] {
		if v.X < minX {
			minX = v.X
		}
		if v.X > maxX {
			maxX = v.X
		}
		if v.Y < minY {
			minY = v.Y
		}
		if v.Y > maxY {
			maxY = v.Y
		}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// BoundingRect returns the smallest axis-aligned Rect enclosing roi's
// vertices — the region a ScreenGrabber actually captures before any
// polygon/perspective rectification runs. roi must be a Rect, Polygon, or
// Perspective.
func BoundingRect(roi any) (Rect, bool) {
	switch v := roi.(type) {
	case Rect:
		return v, true
	case Polygon:
		return v.boundingRect(), true
	case Perspective:
		return v.Polygon.boundingRect(), true
	default:
		return Rect{}, false
	}
}

// RectifyPolygon warps the quadrilateral poly — given in the same screen
// pixel coordinates as origin, the Rect a ScreenGrabber captured to cover
// it — onto an upright target-sized frame via a perspective homography and
// nearest-neighbor sampling. Pixels the homography maps outside frame's
// bounds are left zeroed.
func RectifyPolygon(frame Frame, poly Polygon, origin, target Rect) Frame {
	if target.W <= 0 || target.H <= 0 {
		target = Rect{W: origin.W, H: origin.H}
	}

	var src [4]point2
	for i, v := range poly.Vertices {
		src[i] = point2{float64(v.X - origin.X), float64(v.Y - origin.Y)}
	}
	dst := [4]point2{
		{0, 0},
		{float64(target.W), 0},
		{float64(target.W), float64(target.H)},
		{0, float64(target.H)},
	}
	h := solveHomography(dst, src) // target-space -> source-space

	out := make([]byte, target.W*target.H*4)
	for ty := 0; ty < target.H; ty++ {
		for tx := 0; tx < target.W; tx++ {
			sx, sy := h.apply(float64(tx), float64(ty))
			ix, iy := int(sx+0.5), int(sy+0.5)
			if ix < 0 || iy < 0 || ix >= frame.Width || iy >= frame.Height {
				continue
			}
			di := (ty*target.W + tx) * 4
			si := (iy*frame.Width + ix) * 4
			copy(out[di:di+4], frame.RGBA[si:si+4])
		}
	}
	return Frame{Width: target.W, Height: target.H, RGBA: out}
}

type point2 struct{ x, y float64 }

// homography holds the 8 coefficients of a perspective transform (the 9th,
// h22, is fixed at 1).
type homography [8]float64

func (h homography) apply(x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + 1
	if w == 0 {
		w = 1
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

// solveHomography finds the 8 coefficients mapping each from[i] to to[i],
// via Gaussian elimination over the standard 8x8 linear system for a
// 4-point perspective correspondence.
func solveHomography(from, to [4]point2) homography {
	a := make([][]float64, 8)
	b := make([]float64, 8)
	for i := 0; i < 4; i++ {
		x, y := from[i].x, from[i].y
		x2, y2 := to[i].x, to[i].y

		a[2*i] = []float64{x, y, 1, 0, 0, 0, -x * x2, -y * x2}
		b[2*i] = x2
		a[2*i+1] = []float64{0, 0, 0, x, y, 1, -x * y2, -y * y2}
		b[2*i+1] = y2
	}

	var out homography
	copy(out[:], gaussianSolve(a, b))
	return out
}

// gaussianSolve solves a*x = b via Gaussian elimination with partial
// pivoting, mutating a and b in place. A degenerate (near-singular)
// correspondence — a collapsed capture quad — leaves the offending
// coefficient at zero rather than erroring, since a realtime capture tick
// should degrade gracefully, not crash the loop.
func gaussianSolve(a [][]float64, b []float64) []float64 {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if abs(a[r][col]) > abs(a[pivot][col]) {
				pivot = r
			}
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		if abs(a[col][col]) < 1e-9 {
			continue
		}
		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for c := row + 1; c < n; c++ {
			sum -= a[row][c] * x[c]
		}
		if abs(a[row][row]) < 1e-9 {
			continue
		}
		x[row] = sum / a[row][row]
	}
	return x
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
