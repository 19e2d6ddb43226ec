package outline

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformed reports structured text that cannot be parsed into the
// outline grammar. Block-level problems fail the whole parse; inline
// problems degrade to literal text instead.
var ErrMalformed = errors.New("malformed outline")

var (
	reHeading   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reBullet    = regexp.MustCompile(`^(\s*)[\-\*]\s+(.+)$`)
	reNumbered  = regexp.MustCompile(`^(\s*)\d+\.\s+(.+)$`)
	reRule      = regexp.MustCompile(`^(-{3,}|_{3,}|\*{3,})$`)
	reSeparator = regexp.MustCompile(`^:?-+:?$`)

	// Inline markers, earliest-match-wins, bold before italic so ** is
	// never read as an empty italic pair.
	reInline = regexp.MustCompile(
		`(\*\*(.+?)\*\*` + // **bold**
			`|\*([^*]+?)\*` + // *italic*
			`|\[([^\]]+)\]\(([^)]+)\)` + // [text](url)
			`|(?:^|[^(\w])(https?://[^\s<>")]+[^\s<>".,;:!?)_])` + // bare URL
			`)`)

	indentWidth = 2
)

// Parse turns constrained markdown-like text into an Outline.
func Parse(text string) (*Outline, error) {
	lines := strings.Split(text, "\n")
	o := &Outline{}

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])

		if trimmed == "" || reRule.MatchString(trimmed) {
			continue
		}

		// A table starts wherever a pipe-delimited line is followed by a
		// dash separator row.
		if strings.Contains(trimmed, "|") && i+1 < len(lines) && isSeparatorRow(lines[i+1]) {
			table, consumed, err := parseTable(lines[i:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			o.Blocks = append(o.Blocks, table)
			i += consumed - 1
			continue
		}

		if m := reHeading.FindStringSubmatch(trimmed); m != nil {
			o.Blocks = append(o.Blocks, Block{
				Kind:  BlockHeading,
				Level: len(m[1]),
				Runs:  parseInline(m[2]),
			})
			continue
		}

		// List depth comes from the raw line: leading whitespace at a
		// fixed indent width, capped at MaxListDepth.
		if m := reBullet.FindStringSubmatch(lines[i]); m != nil {
			o.Blocks = append(o.Blocks, Block{
				Kind:  BlockListItem,
				Depth: listDepth(m[1]),
				Runs:  parseInline(m[2]),
			})
			continue
		}
		if m := reNumbered.FindStringSubmatch(lines[i]); m != nil {
			o.Blocks = append(o.Blocks, Block{
				Kind:    BlockListItem,
				Ordered: true,
				Depth:   listDepth(m[1]),
				Runs:    parseInline(m[2]),
			})
			continue
		}

		o.Blocks = append(o.Blocks, Block{
			Kind: BlockParagraph,
			Runs: parseInline(trimmed),
		})
	}

	return o, nil
}

func listDepth(indent string) int {
	depth := len(strings.ReplaceAll(indent, "\t", "  ")) / indentWidth
	if depth > MaxListDepth {
		depth = MaxListDepth
	}
	return depth
}

func isSeparatorRow(line string) bool {
	cells := splitRow(line)
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !reSeparator.MatchString(c) {
			return false
		}
	}
	return true
}

// splitRow splits a pipe-delimited line into trimmed cells, ignoring
// optional leading and trailing pipes.
func splitRow(line string) []string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	parts := strings.Split(s, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// parseTable consumes a header row, a separator row, and every following
// contiguous non-blank line as a data row. A data row whose cell count
// differs from the header is a parse failure, never padded.
func parseTable(lines []string) (Block, int, error) {
	header := splitRow(lines[0])
	width := len(header)

	rows := [][]Cell{toCells(header)}
	consumed := 2 // header + separator

	for _, line := range lines[2:] {
		if strings.TrimSpace(line) == "" {
			break
		}
		cells := splitRow(line)
		if len(cells) != width {
			return Block{}, 0, fmt.Errorf("table row has %d cells, header has %d: %w",
				len(cells), width, ErrMalformed)
		}
		rows = append(rows, toCells(cells))
		consumed++
	}

	return Block{Kind: BlockTable, Rows: rows}, consumed, nil
}

func toCells(texts []string) []Cell {
	cells := make([]Cell, len(texts))
	for i, t := range texts {
		cells[i] = Cell(parseInline(t))
	}
	return cells
}

// parseInline splits text into runs. Unmatched delimiters pass through as
// literal text rather than failing the document.
func parseInline(text string) []Run {
	var runs []Run
	pos := 0

	appendText := func(s string) {
		if s == "" {
			return
		}
		if n := len(runs); n > 0 && runs[n-1].Kind == RunText {
			runs[n-1].Text += s
			return
		}
		runs = append(runs, Text(s))
	}

	for _, m := range reInline.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if start < pos {
			continue
		}
		appendText(text[pos:start])

		switch {
		case m[4] >= 0: // **bold**
			runs = append(runs, Bold(text[m[4]:m[5]]))
		case m[6] >= 0: // *italic*
			runs = append(runs, Italic(text[m[6]:m[7]]))
		case m[8] >= 0: // [text](url)
			runs = append(runs, Link(text[m[8]:m[9]], text[m[10]:m[11]]))
		case m[12] >= 0: // bare URL; the match may include a lead-in rune
			url := text[m[12]:m[13]]
			appendText(text[start:m[12]])
			runs = append(runs, Link(url, url))
		}
		pos = end
	}

	appendText(text[pos:])

	if runs == nil {
		runs = []Run{Text("")}
	}
	return runs
}
