package compliance

import (
	"strings"
	"testing"
)

func TestSplitSectionsByHeadings(t *testing.T) {
	content := "# Introduction\nThis agreement governs use.\n\n## Liability\nNeither party is liable.\nSome more text.\n### Indemnity\nEach party indemnifies the other.\n"

	sections := SplitSections(content, 12000)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}

	if sections[0].Title != "Introduction" || sections[0].Level != 1 {
		t.Fatalf("unexpected first section: %+v", sections[0])
	}
	if sections[1].Title != "Liability" || sections[1].Level != 2 {
		t.Fatalf("unexpected second section: %+v", sections[1])
	}
	if sections[2].Title != "Indemnity" || sections[2].Level != 3 {
		t.Fatalf("unexpected third section: %+v", sections[2])
	}
	if !strings.Contains(sections[1].Content, "Some more text.") {
		t.Fatalf("expected liability content to include body lines, got %q", sections[1].Content)
	}
}

func TestSplitSectionsNoHeadingsFallsBackToGeneral(t *testing.T) {
	sections := SplitSections("plain contract text\nwith two lines\n", 12000)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Title != "General" || sections[0].Level != 1 {
		t.Fatalf("expected General level 1 fallback, got %+v", sections[0])
	}
}

func TestSplitSectionsEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\n  \t\n"} {
		if got := SplitSections(input, 12000); len(got) != 0 {
			t.Fatalf("expected no sections for %q, got %d", input, len(got))
		}
	}
}

func TestSplitSectionsHeadingWithNoBodyIsDropped(t *testing.T) {
	sections := SplitSections("# Empty Heading\n\n# Terms\nactual content\n", 12000)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Title != "Terms" {
		t.Fatalf("expected Terms, got %q", sections[0].Title)
	}
}

func TestSplitSectionsLongSectionContinues(t *testing.T) {
	line := strings.Repeat("x", 100)
	var sb strings.Builder
	sb.WriteString("# Payment\n")
	for i := 0; i < 10; i++ {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sections := SplitSections(sb.String(), 500)
	if len(sections) < 2 {
		t.Fatalf("expected split into multiple sections, got %d", len(sections))
	}
	if sections[0].Title != "Payment" {
		t.Fatalf("expected first chunk titled Payment, got %q", sections[0].Title)
	}
	if sections[1].Title != "Payment (continued)" {
		t.Fatalf("expected continued title, got %q", sections[1].Title)
	}
	if sections[1].Level != sections[0].Level {
		t.Fatalf("continued section should keep level %d, got %d", sections[0].Level, sections[1].Level)
	}
	for i, s := range sections {
		if len(s.Content) > 500 {
			t.Fatalf("section %d exceeds max bytes: %d", i, len(s.Content))
		}
	}
}

func TestSplitSectionsOversizedSingleLineKept(t *testing.T) {
	// A single line longer than the cap still lands in one section; the cap
	// only applies when accumulating a second line.
	long := strings.Repeat("y", 800)
	sections := SplitSections("# Clause\n"+long+"\n", 500)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if !strings.Contains(sections[0].Content, long) {
		t.Fatalf("expected the oversized line to be kept intact")
	}
}

func TestSplitSectionsCRLF(t *testing.T) {
	sections := SplitSections("# Term\r\nbody line\r\n", 12000)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Title != "Term" {
		t.Fatalf("expected Term, got %q", sections[0].Title)
	}
	if strings.Contains(sections[0].Content, "\r") {
		t.Fatalf("expected carriage returns stripped, got %q", sections[0].Content)
	}
}

func TestSplitSectionsSevenHashesIsNotHeading(t *testing.T) {
	sections := SplitSections("####### not a heading\nbody\n", 12000)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Title != "General" {
		t.Fatalf("expected General, got %q", sections[0].Title)
	}
	if !strings.Contains(sections[0].Content, "####### not a heading") {
		t.Fatalf("expected hash line kept as content")
	}
}

func TestSplitSectionsPreservesAllContent(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("# Terms\n")
	for i := 0; i < 40; i++ {
		sb.WriteString("Clause text line with enough bytes to force several continued chunks.\n")
	}
	sb.WriteString("\n## Payment\r\nPayment is due within 30 days.\n\nSecond payment line.\n")
	input := sb.String()

	sections := SplitSections(input, 500)
	if len(sections) < 4 {
		t.Fatalf("expected the long section to split, got %d sections", len(sections))
	}

	// Non-blank, non-heading lines survive splitting byte for byte, in order.
	var want strings.Builder
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" || headingPattern.MatchString(line) {
			continue
		}
		want.WriteString(line + "\n")
	}
	var got strings.Builder
	for _, section := range sections {
		got.WriteString(section.Content)
	}
	if got.String() != want.String() {
		t.Fatalf("content lost or reordered across sections:\nwant %q\ngot  %q", want.String(), got.String())
	}
}
