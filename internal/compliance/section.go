package compliance

import (
	"regexp"
	"strings"
)

// DocumentSection is a bounded slice of document text handed to the section
// analyzer. Sections are transient and never persisted.
type DocumentSection struct {
	Title   string
	Content string
	Level   int
}

var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// SplitSections splits raw document text into bounded-size sections along
// Markdown heading boundaries. Content without headings becomes a single
// "General" section, still subject to length splitting. Blank lines are
// dropped. Empty or whitespace-only input yields no sections.
func SplitSections(content string, maxBytes int) []DocumentSection {
	if maxBytes <= 0 {
		maxBytes = DefaultPolicy().SectionMaxBytes
	}

	var sections []DocumentSection
	current := DocumentSection{Title: "General", Level: 1}
	flush := func() {
		if strings.TrimSpace(current.Content) != "" {
			sections = append(sections, current)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()
			current = DocumentSection{Title: strings.TrimSpace(m[2]), Level: len(m[1])}
			continue
		}

		if current.Content != "" && len(current.Content)+len(line)+1 > maxBytes {
			title, level := current.Title, current.Level
			flush()
			current = DocumentSection{Title: title + " (continued)", Level: level}
		}
		current.Content += line + "\n"
	}

	flush()
	return sections
}
