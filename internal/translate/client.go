package translate

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tindervale/babelglass/internal/metrics"
)

// TokenCallback receives streamed text in batches of coalesced deltas (see
// consumeChatStream), for incremental UI rendering (translate-chunk events).
type TokenCallback func(delta string)

// Client streams chat completions from an SSE-based translation API,
// applying the retry ladder and rate limiter around each attempt. Grounded
// on the teacher's OpenAICompletionsClient (internal/pipeline/llm_openai.go),
// adapted from the legacy /v1/completions text format to /v1/chat/completions
// delta-content chunks, which is what this assistant's backend speaks.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewClient creates a translation API client.
func NewClient(apiKey, baseURL, model string, poolSize int) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		httpClient:  NewPooledHTTPClient(poolSize, 60*time.Second),
		rateLimiter: NewRateLimiter(DefaultRateLimitInterval),
	}
}

// Result is the final outcome of a completed (possibly retried) streaming
// translation call.
type Result struct {
	Text               string
	LatencyMs          float64
	TimeToFirstTokenMs float64
}

// Translate issues the streaming chat-completion request, retrying per the
// 429/5xx/timeout ladder, and invokes onToken with the batched deltas of
// each attempt that gets a 200 response and starts streaming.
func (c *Client) Translate(ctx context.Context, systemPrompt, userText string, maxTokens int, onToken TokenCallback) (*Result, error) {
	start := time.Now()

	body, err := BuildRequestBody(c.model, systemPrompt, userText, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("translate: build request: %w", err)
	}

	var attempt int
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		res, statusCode, retryAfter, isTimeout, err := c.attempt(ctx, body, onToken)
		if err == nil {
			latency := time.Since(start)
			metrics.TranslateLatency.Observe(latency.Seconds())
			res.LatencyMs = float64(latency.Milliseconds())
			return res, nil
		}

		decision := decideRetry(statusCode, attempt, retryAfter, isTimeout)
		if !decision.retry {
			return nil, err
		}

		reason := "5xx"
		if statusCode == http.StatusTooManyRequests {
			reason = "429"
		} else if isTimeout {
			reason = "timeout"
		}
		metrics.APIRetriesTotal.WithLabelValues(reason).Inc()

		if waitErr := sleepOrCancel(ctx, decision.after); waitErr != nil {
			return nil, waitErr
		}
		attempt++
	}
}

func (c *Client) attempt(ctx context.Context, body string, onToken TokenCallback) (res *Result, statusCode int, retryAfter string, isTimeout bool, err error) {
	endpoint, err := url.JoinPath(c.baseURL, "/v1/chat/completions")
	if err != nil {
		return nil, 0, "", false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, 0, "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, 0, "", true, err
		}
		return nil, 0, "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, resp.StatusCode, resp.Header.Get("Retry-After"), false,
			fmt.Errorf("translate: status %d: %s", resp.StatusCode, errBody)
	}

	sr := consumeChatStream(resp.Body, onToken)
	if sr.err != nil {
		return nil, 0, "", false, fmt.Errorf("translate: stream read: %w", sr.err)
	}
	result := &Result{Text: sr.text}
	if !sr.ttft.IsZero() {
		result.TimeToFirstTokenMs = float64(sr.ttft.Sub(sr.start).Milliseconds())
	}
	return result, http.StatusOK, "", false, nil
}

type streamResult struct {
	text  string
	start time.Time
	ttft  time.Time
	err   error
}

// flushInterval is the minimum time between onToken calls: deltas are
// coalesced into batches rather than forwarded one-per-SSE-line, since a
// per-delta callback floods the UI with single-character events.
const flushInterval = 40 * time.Millisecond

// consumeChatStream reads `data: <json>` SSE lines terminated by `data:
// [DONE]`, extracting each delta's content via gjson rather than
// unmarshaling into a struct — matching the teacher pack's gjson-for-hot-
// path-JSON convention. Deltas are buffered; when a delta arrives at least
// flushInterval after the previous flush, the buffered batch is handed to
// onToken and the new delta starts the next batch. Whatever is still
// buffered is flushed once [DONE] or the end of the stream is reached.
func consumeChatStream(body io.Reader, onToken TokenCallback) streamResult {
	sr := streamResult{start: time.Now()}
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pending strings.Builder
	lastFlush := sr.start
	flush := func() {
		if pending.Len() == 0 {
			return
		}
		if onToken != nil {
			onToken(pending.String())
		}
		pending.Reset()
		lastFlush = time.Now()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}
		delta := gjson.Get(data, "choices.0.delta.content").String()
		if delta == "" {
			continue
		}
		if sr.ttft.IsZero() {
			sr.ttft = time.Now()
		}
		if time.Since(lastFlush) >= flushInterval {
			flush()
		}
		pending.WriteString(delta)
		sr.text += delta
	}
	flush()
	sr.err = scanner.Err()
	return sr
}
