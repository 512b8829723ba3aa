package ocr

import "github.com/cespare/xxhash/v2"

// FrameChanged reports whether b differs enough from a to warrant a fresh
// OCR pass, using mean absolute error over RGBA bytes sampled at stride
// (every stride-th byte) rather than every byte, since full-precision MAE
// on a multi-megapixel frame every tick would dominate the sample budget.
// threshold is compared against MAE in the 0..255 byte range.
func FrameChanged(a, b []byte, stride int, threshold float64) bool {
	if len(a) != len(b) {
		return true
	}
	if stride < 1 {
		stride = 1
	}
	if len(a) == 0 {
		return false
	}

	var sum int64
	var n int64
	for i := 0; i < len(a); i += stride {
		diff := int(a[i]) - int(b[i])
		if diff < 0 {
			diff = -diff
		}
		sum += int64(diff)
		n++
	}
	if n == 0 {
		return false
	}
	mae := float64(sum) / float64(n)
	return mae > threshold
}

// yBucket rounds a line's vertical position to a coarse bucket so minor
// re-segmentation (OCR splitting/merging lines by a pixel or two between
// frames) doesn't defeat the cache key.
const yBucketSize = 8

func yBucket(y int) int {
	return y / yBucketSize
}

// LineKey hashes a line's text plus its y-center's bucket with xxhash
// (already an indirect dependency via the Prometheus client) — the fast,
// non-cryptographic hash appropriate for a per-frame cache key that is
// never persisted or compared across processes.
func LineKey(l Line) uint64 {
	h := xxhash.New()
	h.WriteString(l.Text)
	h.Write([]byte{0})
	bucket := yBucket((l.YStart + l.YEnd) / 2)
	h.Write([]byte{byte(bucket), byte(bucket >> 8), byte(bucket >> 16), byte(bucket >> 24)})
	return h.Sum64()
}

// LineCache tracks which lines (by LineKey) were already seen in the
// current OCR session, so RealtimeLoop can skip re-translating text that
// hasn't actually changed.
type LineCache struct {
	seen map[uint64]string
}

// NewLineCache creates an empty per-session line cache.
func NewLineCache() *LineCache {
	return &LineCache{seen: make(map[uint64]string)}
}

// Diff splits lines into changed (new or text-different at this key) and
// unchanged (already seen verbatim), updating the cache with the new set.
func (c *LineCache) Diff(lines []Line) (changed []Line, unchangedCount int) {
	next := make(map[uint64]string, len(lines))
	for _, l := range lines {
		key := LineKey(l)
		next[key] = l.Text
		if prevText, ok := c.seen[key]; ok && prevText == l.Text {
			unchangedCount++
			continue
		}
		changed = append(changed, l)
	}
	c.seen = next
	return changed, unchangedCount
}
