package outline

import (
	"fmt"
	"strings"
)

// Markdown serializes an Outline back into the constrained grammar that
// Parse accepts. Parse(Markdown(o)) yields a structurally equal outline;
// the pipeline stores this form as the outline artifact.
func Markdown(o *Outline) string {
	var b strings.Builder
	ordinal := 1

	for i, blk := range o.Blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		switch blk.Kind {
		case BlockHeading:
			b.WriteString(strings.Repeat("#", blk.Level))
			b.WriteString(" ")
			b.WriteString(runsMarkdown(blk.Runs))
			b.WriteString("\n")
		case BlockListItem:
			b.WriteString(strings.Repeat(" ", blk.Depth*indentWidth))
			if blk.Ordered {
				fmt.Fprintf(&b, "%d. ", ordinal)
				ordinal++
			} else {
				b.WriteString("- ")
			}
			b.WriteString(runsMarkdown(blk.Runs))
			b.WriteString("\n")
		case BlockTable:
			writeTable(&b, blk.Rows)
		default:
			b.WriteString(runsMarkdown(blk.Runs))
			b.WriteString("\n")
		}
		if blk.Kind != BlockListItem {
			ordinal = 1
		}
	}

	return b.String()
}

func writeTable(b *strings.Builder, rows [][]Cell) {
	if len(rows) == 0 {
		return
	}
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = runsMarkdown([]Run(c))
		}
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")

		if i == 0 {
			seps := make([]string, len(row))
			for j := range seps {
				seps[j] = "---"
			}
			b.WriteString("| ")
			b.WriteString(strings.Join(seps, " | "))
			b.WriteString(" |\n")
		}
	}
}

func runsMarkdown(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		switch r.Kind {
		case RunBold:
			b.WriteString("**" + r.Text + "**")
		case RunItalic:
			b.WriteString("*" + r.Text + "*")
		case RunLink:
			fmt.Fprintf(&b, "[%s](%s)", r.Text, r.Target)
		default:
			b.WriteString(r.Text)
		}
	}
	return b.String()
}
