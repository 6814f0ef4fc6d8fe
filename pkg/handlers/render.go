package handlers

import (
	"fmt"
	"strings"
	"time"
)

// field renders one RPSL-style attribute line with the value column
// starting at offset 20, matching the registry texture.
func field(b *strings.Builder, key, value string) {
	name := key + ":"
	if len(name) < 20 {
		name += strings.Repeat(" ", 20-len(name))
	} else {
		name += " "
	}
	b.WriteString(name)
	b.WriteString(value)
	b.WriteByte('\n')
}

// fieldf is field with a format string value.
func fieldf(b *strings.Builder, key, format string, args ...any) {
	field(b, key, fmt.Sprintf(format, args...))
}

// comment renders a "% " comment line.
func comment(b *strings.Builder, format string, args ...any) {
	b.WriteString("% ")
	fmt.Fprintf(b, format, args...)
	b.WriteByte('\n')
}

// section renders a "=== Name ===" delimiter used by multi-source output.
func section(b *strings.Builder, name string) {
	b.WriteString("=== ")
	b.WriteString(name)
	b.WriteString(" ===\n")
}

// queryHeader renders the standard three-line header most handlers open
// with.
func queryHeader(b *strings.Builder, title, source, q string) {
	comment(b, "%s", title)
	if source != "" {
		comment(b, "Data from %s", source)
	}
	comment(b, "Query: %s", q)
	b.WriteByte('\n')
}

// utcStamp renders a time as "YYYY-MM-DD HH:MM:SS UTC".
func utcStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// utcStampUnix renders a time with its unix seconds appended, the format
// used by certificate output.
func utcStampUnix(t time.Time) string {
	return fmt.Sprintf("%s (%d)", utcStamp(t), t.Unix())
}

// orNA substitutes "N/A" for empty upstream fields.
func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// truncate shortens a cell to fit a table column.
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
