package translate

import (
	"net/http"
	"testing"
	"time"
)

func TestDecideRetry429HonorsRetryAfter(t *testing.T) {
	d := decideRetry(http.StatusTooManyRequests, 0, "2", false)
	if !d.retry || d.after != 2*time.Second {
		t.Fatalf("got %+v, want retry after 2s", d)
	}
}

func TestDecideRetry429FallsBackToLadderWithoutHeader(t *testing.T) {
	d := decideRetry(http.StatusTooManyRequests, 0, "", false)
	if !d.retry || d.after != time.Second {
		t.Fatalf("got %+v, want 1s backoff on first 429 attempt", d)
	}
}

func TestDecideRetry429ExhaustsAfterThreeAttempts(t *testing.T) {
	d := decideRetry(http.StatusTooManyRequests, maxRetries429, "", false)
	if d.retry {
		t.Fatalf("expected no retry after exhausting 429 budget")
	}
}

func TestDecideRetry5xxExponentialBackoff(t *testing.T) {
	d0 := decideRetry(http.StatusServiceUnavailable, 0, "", false)
	d1 := decideRetry(http.StatusServiceUnavailable, 1, "", false)
	if d0.after != 500*time.Millisecond || d1.after != time.Second {
		t.Fatalf("got d0=%v d1=%v, want 500ms then 1s", d0.after, d1.after)
	}
}

func TestDecideRetryTimeoutRetriesOnce(t *testing.T) {
	d := decideRetry(0, 0, "", true)
	if !d.retry {
		t.Fatalf("expected one retry on timeout")
	}
	d2 := decideRetry(0, maxRetriesSoTO, "", true)
	if d2.retry {
		t.Fatalf("expected no second retry on timeout")
	}
}

func TestDecideRetryNonRetryableStatus(t *testing.T) {
	d := decideRetry(http.StatusBadRequest, 0, "", false)
	if d.retry {
		t.Fatalf("expected 400 to never retry")
	}
}
