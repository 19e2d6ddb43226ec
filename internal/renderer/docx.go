package renderer

import (
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/nguyentantai21042004/scribeflow/internal/outline"
)

const (
	fontName  = "Times New Roman"
	fontSize  = 13
	titleSize = 16
)

// WriteDocx renders an outline into a .docx file at outputPath. The
// transformation is pure apart from the final write: identical outlines
// produce identical document structure.
func WriteDocx(title string, o *outline.Outline, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}

	addTitle(doc, title)

	for _, blk := range o.Blocks {
		switch blk.Kind {
		case outline.BlockHeading:
			addHeading(doc, blk)
		case outline.BlockListItem:
			addListItem(doc, blk)
		case outline.BlockTable:
			addTable(doc, blk)
		default:
			addRuns(doc.AddParagraph(""), blk.Runs, false, fontSize)
		}
	}

	if err := doc.SaveTo(outputPath); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func addTitle(doc *docx.RootDoc, title string) {
	p := doc.AddParagraph("")
	p.AddText(title).Font(fontName).Size(titleSize).Color("000000").Bold(true)
}

// Heading rank maps to font size; every level renders bold.
func addHeading(doc *docx.RootDoc, blk outline.Block) {
	p := doc.AddParagraph("")
	addRuns(p, blk.Runs, true, headingSize(blk.Level))
}

func addListItem(doc *docx.RootDoc, blk outline.Block) {
	p := doc.AddParagraph("")
	indent := strings.Repeat("    ", blk.Depth)
	marker := "• "
	if blk.Ordered {
		marker = "– "
	}
	p.AddText(indent + marker).Font(fontName).Size(fontSize).Color("000000")
	addRuns(p, blk.Runs, false, fontSize)
}

func addTable(doc *docx.RootDoc, blk outline.Block) {
	table := doc.AddTable()
	table.Style("LightGrid")

	for i, row := range blk.Rows {
		r := table.AddRow()
		for _, cell := range row {
			p := r.AddCell().AddParagraph("")
			// Header row is bold to stand apart from data rows.
			addRuns(p, []outline.Run(cell), i == 0, fontSize)
		}
	}
}

func addRuns(p *docx.Paragraph, runs []outline.Run, bold bool, size uint64) {
	for _, r := range runs {
		switch r.Kind {
		case outline.RunLink:
			p.AddLink(r.Text, r.Target)
		case outline.RunBold:
			p.AddText(r.Text).Font(fontName).Size(size).Color("000000").Bold(true)
		case outline.RunItalic:
			p.AddText(r.Text).Font(fontName).Size(size).Color("000000").Italic(true)
		default:
			run := p.AddText(r.Text).Font(fontName).Size(size).Color("000000")
			if bold {
				run.Bold(true)
			}
		}
	}
}

func headingSize(level int) uint64 {
	switch level {
	case 1:
		return 16
	case 2:
		return 15
	case 3:
		return 14
	default:
		return fontSize
	}
}
