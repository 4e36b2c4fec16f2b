package markdown

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/genchat"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type renderer struct {
	heading lipgloss.Style
	bold    lipgloss.Style
	italic  lipgloss.Style
	code    lipgloss.Style
	link    lipgloss.Style
	muted   lipgloss.Style
}

func newRenderer(theme genchat.Theme) *renderer {
	return &renderer{
		heading: lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		bold:    lipgloss.NewStyle().Bold(true),
		italic:  lipgloss.NewStyle().Italic(true),
		code:    lipgloss.NewStyle().Bold(true),
		link:    lipgloss.NewStyle().Underline(true),
		muted:   lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
	}
}

// ansiColor maps a 0-15 color index to a lipgloss color. Negative indices
// disable coloring.
func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *renderer) render(source []byte, width int) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	r.blocks(doc, source, width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func (r *renderer) blocks(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(c, source, width, buf)
	}
}

func (r *renderer) block(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph:
		buf.WriteString(wrap(r.inline(n, source), width))
		r.blockGap(n, buf)

	case *ast.Heading:
		buf.WriteString(wrap(r.heading.Render(r.inline(n, source)), width))
		r.blockGap(n, buf)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			buf.WriteString(r.muted.Render(lang))
			buf.WriteString("\n")
		}
		r.codeLines(n, source, buf)
		r.gap(n, buf)

	case *ast.CodeBlock:
		r.codeLines(n, source, buf)
		r.gap(n, buf)

	case *ast.List:
		r.list(n, source, width, buf, 0)
		r.gap(n, buf)

	case *ast.ThematicBreak:
		buf.WriteString("---\n")
		r.gap(n, buf)

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(source))
		}

	default:
		// Blockquotes and anything else unrecognized: render children flat.
		r.blocks(node, source, width, buf)
	}
}

func (r *renderer) blockGap(n ast.Node, buf *bytes.Buffer) {
	buf.WriteString("\n")
	r.gap(n, buf)
}

// gap separates sibling blocks with a blank line.
func (r *renderer) gap(n ast.Node, buf *bytes.Buffer) {
	if n.NextSibling() != nil {
		buf.WriteString("\n")
	}
}

// codeLines writes code block content with a gutter, preserving line breaks.
func (r *renderer) codeLines(n ast.Node, source []byte, buf *bytes.Buffer) {
	gutter := r.muted.Render("│") + " "
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		content := strings.TrimRight(string(line.Value(source)), "\n")
		buf.WriteString(gutter + content + "\n")
	}
}

func (r *renderer) list(node *ast.List, source []byte, width int, buf *bytes.Buffer, depth int) {
	num := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "- "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		indent := strings.Repeat("  ", depth)

		var content bytes.Buffer
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				content.WriteString(r.inline(in, source))
			case *ast.List:
				if content.Len() > 0 {
					r.listItem(buf, indent, marker, content.String(), width)
					content.Reset()
				}
				r.list(in, source, width, buf, depth+1)
				marker = strings.Repeat(" ", len(marker))
			default:
				r.block(ic, source, width, &content)
			}
		}
		if content.Len() > 0 {
			r.listItem(buf, indent, marker, content.String(), width)
		}
	}
}

// listItem writes one item, indenting wrapped continuation lines under the
// marker.
func (r *renderer) listItem(buf *bytes.Buffer, indent, marker, content string, width int) {
	prefix := indent + marker
	itemWidth := width - len(prefix)
	if itemWidth < 10 {
		itemWidth = 10
	}
	continuation := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(wrap(content, itemWidth), "\n") {
		if i == 0 {
			buf.WriteString(prefix + line + "\n")
			continue
		}
		buf.WriteString(continuation + line + "\n")
	}
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

// inline collects the styled inline content of a block node.
func (r *renderer) inline(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.inlineNode(c, source, &buf)
	}
	return buf.String()
}

func (r *renderer) inlineNode(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := r.inline(n, source)
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(inner))
			return
		}
		buf.WriteString(r.bold.Render(inner))

	case *ast.CodeSpan:
		buf.WriteString(r.code.Render(r.inline(n, source)))

	case *ast.Link:
		buf.WriteString(r.link.Render(r.inline(n, source)))
		buf.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))

	case *ast.AutoLink:
		buf.WriteString(r.link.Render(string(n.URL(source))))

	case *ast.Image:
		buf.WriteString(r.link.Render(r.inline(n, source)))
		buf.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.inlineNode(c, source, buf)
		}
	}
}
