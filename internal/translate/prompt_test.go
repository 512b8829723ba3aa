package translate

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestClampMaxTokensHasFloor(t *testing.T) {
	if got := ClampMaxTokens(0); got != maxTokensFloor {
		t.Fatalf("got %d, want floor %d", got, maxTokensFloor)
	}
}

func TestClampMaxTokensCapsAt4096(t *testing.T) {
	if got := ClampMaxTokens(100000); got != 4096 {
		t.Fatalf("got %d, want capped 4096", got)
	}
}

func TestSystemPromptIncludesGlossaryHint(t *testing.T) {
	p := SystemPrompt("en", "fr", "hello=bonjour")
	if !strings.Contains(p, "hello=bonjour") {
		t.Fatalf("expected glossary hint in prompt, got %q", p)
	}
}

func TestBuildRequestBodyProducesValidJSON(t *testing.T) {
	body, err := BuildRequestBody("gpt-x", "system", "user text", 128)
	if err != nil {
		t.Fatalf("BuildRequestBody: %v", err)
	}
	if !gjson.Valid(body) {
		t.Fatalf("expected valid JSON body, got %s", body)
	}
	if gjson.Get(body, "messages.0.role").String() != "system" {
		t.Fatalf("expected messages.0.role = system")
	}
	if gjson.Get(body, "max_tokens").Int() != 128 {
		t.Fatalf("expected max_tokens = 128")
	}
}
