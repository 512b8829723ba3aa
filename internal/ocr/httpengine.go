package ocr

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// Recognize posts the frame's dimensions and raw RGBA bytes as an
// application/octet-stream body (width/height as a little-endian uint32
// header, matching the teacher's float32-sample wire format for the
// classify sidecar) and parses a JSON line array from the response.
func (e *HTTPEngine) Recognize(ctx context.Context, frame Frame) ([]Line, error) {
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], uint32(frame.Width))
	binary.LittleEndian.PutUint32(header[4:8], uint32(frame.Height))

	body := bytes.NewBuffer(header)
	body.Write(frame.RGBA)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url+"/recognize", body)
	if err != nil {
		return nil, fmt.Errorf("ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ocr status %d: %s", resp.StatusCode, errBody)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ocr read body: %w", err)
	}

	var lines []Line
	gjson.GetBytes(raw, "lines").ForEach(func(_, v gjson.Result) bool {
		lines = append(lines, Line{
			Text:   v.Get("text").String(),
			YStart: int(v.Get("y_start").Int()),
			YEnd:   int(v.Get("y_end").Int()),
		})
		return true
	})
	return lines, nil
}
