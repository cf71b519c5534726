package openaicompat

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is the public OpenAI API root used when no base URL is configured
const DefaultBaseURL = "https://api.openai.com/v1"

// localPorts are the conventional ports of LM Studio (1234) and Ollama (11434)
var localPorts = []string{"1234", "11434"}

// NormalizeBaseURL turns a user-entered base URL into the root that
// "/chat/completions" is appended to.
//
// Blank input defaults to DefaultBaseURL. Exactly one trailing "/" is removed.
// Local servers are often configured without the version segment, so a URL whose
// host looks local or private gets "/v1" appended unless it already ends with it.
// Normalizing an already-normalized URL returns it unchanged.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		base = DefaultBaseURL
	}

	base = strings.TrimSuffix(base, "/")

	if isLocalEndpoint(base) && !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}

	return base
}

// ChatCompletionsURL returns the chat/completions endpoint for a configured base URL
func ChatCompletionsURL(raw string) string {
	return NormalizeBaseURL(raw) + "/chat/completions"
}

// isLocalEndpoint reports whether the URL's host is loopback, a 192.168.x.x
// address, or uses a conventional local-LLM port.
func isLocalEndpoint(base string) bool {
	host := base
	port := ""
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		host = u.Hostname()
		port = u.Port()
	} else {
		// Scheme-less input like "localhost:1234" does not parse into Host
		host, port = splitHostPort(base)
	}

	if strings.Contains(host, "localhost") ||
		strings.Contains(host, "127.0.0.1") ||
		strings.HasPrefix(host, "192.168.") {
		return true
	}
	for _, p := range localPorts {
		if port == p {
			return true
		}
	}
	return false
}

// splitHostPort is a lenient host/port split for strings without a scheme
func splitHostPort(s string) (string, string) {
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
