package outline

// Outline is the parsed structural form of a document, ready for
// rendering. It carries no formatting beyond what the grammar encodes.
type Outline struct {
	Blocks []Block
}

type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockParagraph
	BlockListItem
	BlockTable
)

// MaxListDepth caps list nesting to keep rendering bounded.
const MaxListDepth = 8

// Block is one top-level element. Kind decides which fields are set:
// headings use Level+Runs, list items use Ordered+Depth+Runs, tables use
// Rows, paragraphs use Runs.
type Block struct {
	Kind    BlockKind
	Level   int
	Ordered bool
	Depth   int
	Runs    []Run
	Rows    [][]Cell
}

// Cell is one table cell: a sequence of inline runs.
type Cell []Run

type RunKind int

const (
	RunText RunKind = iota
	RunBold
	RunItalic
	RunLink
)

// Run is one inline span. Target is set for links only.
type Run struct {
	Kind   RunKind
	Text   string
	Target string
}

func Text(s string) Run      { return Run{Kind: RunText, Text: s} }
func Bold(s string) Run      { return Run{Kind: RunBold, Text: s} }
func Italic(s string) Run    { return Run{Kind: RunItalic, Text: s} }
func Link(s, url string) Run { return Run{Kind: RunLink, Text: s, Target: url} }

// PlainText flattens all runs of a block to their visible text.
func (b Block) PlainText() string {
	var out string
	for _, r := range b.Runs {
		out += r.Text
	}
	return out
}
