package llm

import "strings"

const codeFence = "```"

// SanitizeResponse strips one incidental code-fence wrapper and surrounding whitespace
// from raw model output.
//
// If the trimmed text starts with a fence, the first line (the opening fence and any
// language tag) is dropped, and the last line is dropped only if it is a bare closing
// fence. This is a single pass: interior fences and further fence pairs are left alone.
func SanitizeResponse(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, codeFence) {
		return text
	}

	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == codeFence {
		lines = lines[:n-1]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// IsErrorSentinel reports whether sanitized model output is a conversion refusal.
// Legitimate content that happens to start with "ERROR:" is indistinguishable from
// a refusal and is reported as one.
func IsErrorSentinel(text string) bool {
	return strings.HasPrefix(text, ErrorSentinel)
}
