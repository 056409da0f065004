package security

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// The sanitizers run at the trust boundary: form submission on the way out,
// and server-supplied strings (error messages, rich text) before display.
// The client has no persistent store of its own, so nothing is sanitized at
// rest.

// htmlPolicy keeps only the small markup subset the dashboard intentionally
// renders as rich text.
var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "em", "strong", "p", "br", "a")
	p.AllowAttrs("href", "target").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	return p
}()

// textPolicy strips all markup.
var textPolicy = bluemonday.StrictPolicy()

var emailDisallowed = regexp.MustCompile(`[^\w@.-]`)

// SanitizeHTML strips all tags and attributes except the explicit
// allow-list (b, i, em, strong, a, p, br; href and target on a). Use it
// only where rendering rich text is intentional.
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// SanitizeText strips all tags. Every user- or server-supplied string
// destined for plain display goes through here, which neutralizes
// reflected-HTML attacks from untrusted error payloads. Idempotent.
func SanitizeText(input string) string {
	return textPolicy.Sanitize(input)
}

// SanitizeEmail lowercases, trims, and removes every character except word
// characters, '@', '.', and '-'. It does not validate structure; a missing
// '@' is the server's problem. The result is also the identifier the
// attempt limiters key on.
func SanitizeEmail(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	return emailDisallowed.ReplaceAllString(s, "")
}

// SanitizePhone removes every character except digits and a single leading
// '+'.
func SanitizePhone(input string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(input) {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeURL parses input as a URL and returns it back in normalized form.
// Returns the empty string when parsing fails or the scheme is not http or
// https.
func SanitizeURL(input string) string {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
