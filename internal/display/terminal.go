// Package display provides terminal output formatting for tweetfeed.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/gauthierbraillon/tweetfeed/internal/aggregator"
)

const (
	separator     = " • "
	maxTitleWidth = 100
)

// TerminalFormatter formats feed items for terminal display.
type TerminalFormatter struct{}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{}
}

// FormatItem formats a single feed item for display.
func (f *TerminalFormatter) FormatItem(item aggregator.FeedItem) string {
	var lines []string

	// Header: [@username] Title
	title := f.TruncateText(strings.Join(strings.Fields(item.Title), " "), maxTitleWidth)
	lines = append(lines, fmt.Sprintf("[@%s] %s", item.Username, title))

	// Author and timestamp
	meta := fmt.Sprintf("  by %s%s%s", item.Author, separator, f.FormatTimestamp(item.PublishedAt))
	lines = append(lines, meta)

	if media := f.formatMedia(item); media != "" {
		lines = append(lines, "  "+media)
	}

	if item.URI != "" {
		lines = append(lines, "  "+item.URI)
	}

	return strings.Join(lines, "\n") + "\n"
}

// formatMedia summarises flags and attachments into a single line.
func (f *TerminalFormatter) formatMedia(item aggregator.FeedItem) string {
	var parts []string

	if item.IsRetweet {
		parts = append(parts, "retweet")
	}
	if item.IsReply {
		parts = append(parts, "reply")
	}
	if n := len(item.Enclosures); n > 0 {
		if n == 1 {
			parts = append(parts, "1 photo")
		} else {
			parts = append(parts, fmt.Sprintf("%d photos", n))
		}
	}

	return strings.Join(parts, separator)
}

// FormatFeed formats multiple feed items for display.
func (f *TerminalFormatter) FormatFeed(items []aggregator.FeedItem) string {
	if len(items) == 0 {
		return "No items to display.\n"
	}

	var formatted []string
	for _, item := range items {
		formatted = append(formatted, f.FormatItem(item))
	}

	return strings.Join(formatted, "\n---\n\n")
}

// FormatTimestamp formats a timestamp as relative time.
func (f *TerminalFormatter) FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown time"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// pluralize returns "N unit ago" or "N units ago" based on count.
func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
