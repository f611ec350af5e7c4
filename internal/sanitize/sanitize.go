// Package sanitize cleans inbound message content before storage. HTML
// passes through a conservative bluemonday allow-list; subjects and plain
// text are stripped of control characters.
package sanitize

import (
	"strings"
	"unicode"

	"github.com/k3a/html2text"
	"github.com/microcosm-cc/bluemonday"
)

const (
	maxSubjectRunes = 255
	maxBodyBytes    = 1 << 20
	previewRunes    = 100

	// EmptyPreview is stored when a message has no usable body.
	EmptyPreview = "(no content)"
)

var htmlPolicy = newHTMLPolicy()

func newHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Content is the sanitized form of an inbound message body.
type Content struct {
	Subject string
	Text    string
	HTML    string
	Preview string
}

// Clean sanitizes subject, text and HTML bodies and derives the preview.
func Clean(subject, textBody, htmlBody string) Content {
	c := Content{
		Subject: Subject(subject),
		Text:    Text(textBody),
		HTML:    HTML(htmlBody),
	}
	c.Preview = Preview(c.Text, c.HTML)
	return c
}

// Subject strips control characters, collapses whitespace and enforces the
// maximum subject length.
func Subject(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	return truncateRunes(cleaned, maxSubjectRunes)
}

// Text strips characters unsafe for storage, keeping newlines and tabs.
func Text(s string) string {
	if len(s) > maxBodyBytes {
		s = s[:maxBodyBytes]
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// HTML removes script execution vectors, inline event handlers and
// disallowed tags while preserving basic formatting.
func HTML(s string) string {
	if s == "" {
		return ""
	}
	if len(s) > maxBodyBytes {
		s = s[:maxBodyBytes]
	}
	return htmlPolicy.Sanitize(s)
}

// Preview derives the list-view excerpt from the sanitized text body,
// falling back to the sanitized HTML with tags stripped. Inputs must
// already be sanitized.
func Preview(text, html string) string {
	src := text
	if src == "" && html != "" {
		src = strings.TrimSpace(html2text.HTML2Text(html))
	}
	src = strings.Join(strings.Fields(src), " ")
	if src == "" {
		return EmptyPreview
	}
	return truncateRunes(src, previewRunes)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
