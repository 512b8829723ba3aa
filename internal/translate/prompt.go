package translate

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// systemPromptTemplate is intentionally terse — the spec bounds the system
// prompt at roughly 60 tokens, and every extra instruction word here is
// billed on every single request.
const systemPromptTemplate = "Translate from %s to %s. Preserve <<PHn>> tokens exactly. Output only the translation, no commentary."

// maxTokensFloor and maxTokensPerChar bound the max_tokens request field:
// a small floor for short strings plus a per-source-character allowance,
// since most languages expand or contract within a narrow band per char.
const (
	maxTokensFloor   = 64
	maxTokensPerChar = 1.4
)

// ClampMaxTokens derives a max_tokens budget from the protected source
// text's length, per the spec's clamp formula.
func ClampMaxTokens(sourceLen int) int {
	n := maxTokensFloor + int(float64(sourceLen)*maxTokensPerChar)
	if n > 4096 {
		n = 4096
	}
	return n
}

// SystemPrompt builds the system instruction, optionally appending a
// glossary hint.
func SystemPrompt(srcLang, tgtLang, glossaryHint string) string {
	p := fmt.Sprintf(systemPromptTemplate, srcLang, tgtLang)
	if glossaryHint != "" {
		p += " Forced terms: " + glossaryHint
	}
	return p
}

// BuildRequestBody constructs the compact JSON chat-completion request body
// using sjson rather than encoding/json struct marshaling, matching the
// teacher pack's preference (gjson/sjson already an indirect dependency)
// for building/reading JSON without intermediate struct types on the hot
// per-request path.
func BuildRequestBody(model, systemPrompt, userText string, maxTokens int) (string, error) {
	body := "{}"
	var err error
	if body, err = sjson.Set(body, "model", model); err != nil {
		return "", err
	}
	if body, err = sjson.Set(body, "stream", true); err != nil {
		return "", err
	}
	if body, err = sjson.Set(body, "max_tokens", maxTokens); err != nil {
		return "", err
	}
	if body, err = sjson.Set(body, "messages.0.role", "system"); err != nil {
		return "", err
	}
	if body, err = sjson.Set(body, "messages.0.content", systemPrompt); err != nil {
		return "", err
	}
	if body, err = sjson.Set(body, "messages.1.role", "user"); err != nil {
		return "", err
	}
	if body, err = sjson.Set(body, "messages.1.content", userText); err != nil {
		return "", err
	}
	return body, nil
}
