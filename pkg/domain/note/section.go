package note

import "strings"

// The managed section starts at the line carrying the base heading and runs
// to the next Markdown heading (#/##) or end of file. Everything outside
// that span is user content and is preserved verbatim.

// findSection returns the [start, end) line span of the managed section.
func findSection(lines []string, baseHeading string) (start, end int, found bool) {
	start = -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), baseHeading) {
			start = i
			break
		}
	}
	if start == -1 {
		return 0, 0, false
	}

	end = len(lines)
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "## ") || strings.HasPrefix(trimmed, "# ") {
			end = i
			break
		}
	}
	return start, end, true
}

// Merge produces the full note document: section-scoped replacement into an
// existing note, append when the section is absent, or a fresh document with
// the title when the note does not exist yet. The result always ends with a
// single trailing newline so repeated merges are byte-stable.
func Merge(existing, title, baseHeading, section string) string {
	section = strings.TrimRight(section, "\n")

	if strings.TrimSpace(existing) == "" {
		return title + "\n\n" + section + "\n"
	}

	lines := strings.Split(strings.TrimRight(existing, "\n"), "\n")
	start, end, found := findSection(lines, baseHeading)
	if !found {
		return strings.Join(lines, "\n") + "\n\n" + section + "\n"
	}

	out := make([]string, 0, len(lines))
	out = append(out, lines[:start]...)
	out = append(out, strings.Split(section, "\n")...)
	if end < len(lines) {
		out = append(out, "")
		out = append(out, lines[end:]...)
	}
	return strings.Join(out, "\n") + "\n"
}
