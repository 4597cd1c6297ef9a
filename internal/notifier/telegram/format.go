package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

// Per-field caps keep the fixed part of the message well under
// MaxMessageLength, so the description always has room and the whole
// message fits the transport limit no matter how degenerate the input.
const (
	maxSourceLen = 128
	maxTitleLen  = 512
	maxFieldLen  = 256
	maxURLLen    = 1024
	maxTagsLen   = 512
)

// FormatMessage renders a posting as Telegram HTML. The result never
// exceeds MaxMessageLength; the description is trimmed first when it does.
func FormatMessage(p pipeline.JobPosting) string {
	var b strings.Builder

	source, _ := escapeClip(p.Source, maxSourceLen)
	title, _ := escapeClip(p.Title, maxTitleLen)
	fmt.Fprintf(&b, "<b>New Job Posting - %s</b>\n\n", source)
	fmt.Fprintf(&b, "<b>%s</b>\n", title)

	company, _ := escapeClip(p.Company, maxFieldLen)
	location, _ := escapeClip(p.Location, maxFieldLen)
	if company != "" {
		b.WriteString(company)
		if location != "" {
			b.WriteString(" | " + location)
		}
		b.WriteString("\n")
	} else if location != "" {
		b.WriteString(location + "\n")
	}
	// A clipped URL would point nowhere, so an oversized link is dropped
	// rather than truncated.
	if escapedURL := html.EscapeString(p.URL); p.URL != "" && len(escapedURL) <= maxURLLen {
		fmt.Fprintf(&b, "<a href=\"%s\">View posting</a>\n", escapedURL)
	}
	if !p.PostedAt.IsZero() {
		fmt.Fprintf(&b, "Posted: %s\n", p.PostedAt.Format("Jan 2, 2006"))
	}
	if len(p.Tags) > 0 {
		tags, _ := escapeClip(strings.Join(p.Tags, ", "), maxTagsLen)
		fmt.Fprintf(&b, "Tags: %s\n", tags)
	}

	head := b.String()
	if p.Description == "" {
		return strings.TrimRight(head, "\n")
	}

	budget := MaxMessageLength - len(head) - len("\n<pre></pre>")
	desc, clipped := escapeClip(p.Description, budget)
	if clipped {
		desc, _ = escapeClip(p.Description, budget-len(truncationMarker))
		desc += truncationMarker
	}
	return head + "\n<pre>" + desc + "</pre>"
}

// escapeClip HTML-escapes s, stopping before the escaped form would exceed
// limit bytes. The clip happens between source runes, so the output never
// ends in a split entity or a partial UTF-8 sequence. The bool reports
// whether anything was dropped.
func escapeClip(s string, limit int) (string, bool) {
	if limit <= 0 {
		return "", s != ""
	}
	escaped := html.EscapeString(s)
	if len(escaped) <= limit {
		return escaped, false
	}
	var b strings.Builder
	for _, r := range s {
		e := html.EscapeString(string(r))
		if b.Len()+len(e) > limit {
			break
		}
		b.WriteString(e)
	}
	return b.String(), true
}
