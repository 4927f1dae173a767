package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Format selects a diff renderer.
type Format string

const (
	FormatInline     Format = "inline"
	FormatSideBySide Format = "side-by-side"
	FormatSummary    Format = "summary"
)

// Options control diff rendering.
type Options struct {
	Format   Format
	Colorize bool
}

// Minimum column widths for the side-by-side renderer.
const (
	minKeyWidth    = 8
	minValueWidth  = 10
	minStatusWidth = 10
)

// Category colors. EnableColor is forced so Colorize means colorize even when
// stdout is not a terminal (output may be piped to a pager).
var (
	colorAdded    = forced(color.FgGreen)
	colorModified = forced(color.FgYellow)
	colorRemoved  = forced(color.FgRed)
	colorLocal    = forced(color.FgCyan)
)

func forced(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// Render formats the diff. Returns "" iff all four categories are empty,
// regardless of format; callers use that as the "no changes" signal.
// Keys are rendered in sorted order within each category.
func Render(diff *Diff, opts Options) string {
	if diff.Empty() {
		return ""
	}

	switch opts.Format {
	case FormatSideBySide:
		return renderSideBySide(diff)
	case FormatSummary:
		return renderSummary(diff)
	default:
		return renderInline(diff, opts.Colorize)
	}
}

// renderInline emits one line per difference with a leading category marker:
// + added, ~ modified, - removed, ! local-only.
func renderInline(diff *Diff, colorize bool) string {
	paint := func(c *color.Color, line string) string {
		if !colorize {
			return line
		}
		return c.Sprint(line)
	}

	var lines []string
	for _, key := range sortedKeys(diff.Added) {
		lines = append(lines, paint(colorAdded, fmt.Sprintf("+ %s=%s", key, diff.Added[key])))
	}
	for _, key := range sortedChangeKeys(diff.Modified) {
		change := diff.Modified[key]
		lines = append(lines, paint(colorModified, fmt.Sprintf("~ %s=%s (was %s)", key, change.New, change.Old)))
	}
	for _, key := range sortedKeys(diff.Removed) {
		lines = append(lines, paint(colorRemoved, fmt.Sprintf("- %s", key)))
	}
	for _, key := range sortedKeys(diff.LocalOnly) {
		lines = append(lines, paint(colorLocal, fmt.Sprintf("! %s (local only)", key)))
	}
	return strings.Join(lines, "\n")
}

// sideBySideRow is one line of the tabular renderer.
type sideBySideRow struct {
	key, local, remote, status string
}

// renderSideBySide emits a KEY/LOCAL/REMOTE/STATUS table. Each column is
// sized to its longest value, subject to the enforced minimum widths.
func renderSideBySide(diff *Diff) string {
	rows := make([]sideBySideRow, 0, len(diff.Added)+len(diff.Modified)+len(diff.Removed)+len(diff.LocalOnly))

	for _, key := range sortedKeys(diff.Added) {
		rows = append(rows, sideBySideRow{key: key, remote: diff.Added[key], status: "added"})
	}
	for _, key := range sortedChangeKeys(diff.Modified) {
		change := diff.Modified[key]
		rows = append(rows, sideBySideRow{key: key, local: change.Old, remote: change.New, status: "modified"})
	}
	for _, key := range sortedKeys(diff.Removed) {
		rows = append(rows, sideBySideRow{key: key, local: diff.Removed[key], status: "removed"})
	}
	for _, key := range sortedKeys(diff.LocalOnly) {
		rows = append(rows, sideBySideRow{key: key, local: diff.LocalOnly[key], status: "local-only"})
	}

	keyW, localW, remoteW, statusW := minKeyWidth, minValueWidth, minValueWidth, minStatusWidth
	for _, row := range rows {
		keyW = max(keyW, len(row.key))
		localW = max(localW, len(row.local))
		remoteW = max(remoteW, len(row.remote))
		statusW = max(statusW, len(row.status))
	}

	var sb strings.Builder
	writeRow := func(key, local, remote, status string) {
		fmt.Fprintf(&sb, "%-*s  %-*s  %-*s  %-*s\n", keyW, key, localW, local, remoteW, remote, statusW, status)
	}
	writeRow("KEY", "LOCAL", "REMOTE", "STATUS")
	for _, row := range rows {
		writeRow(row.key, row.local, row.remote, row.status)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderSummary emits comma-joined non-zero category counts in a fixed order.
func renderSummary(diff *Diff) string {
	var parts []string
	if n := len(diff.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("%d added", n))
	}
	if n := len(diff.Modified); n > 0 {
		parts = append(parts, fmt.Sprintf("%d modified", n))
	}
	if n := len(diff.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", n))
	}
	if n := len(diff.LocalOnly); n > 0 {
		parts = append(parts, fmt.Sprintf("%d local-only", n))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedChangeKeys(m map[string]Change) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
