package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func init() {
	Register("txt", extractText)
	Register("md", extractMarkdown)
	Register("markdown", extractMarkdown)
}

func extractText(data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		data = []byte(strings.ToValidUTF8(string(data), ""))
	}
	return []string{string(data)}, nil
}

// extractMarkdown keeps block structure as blank-line separated paragraphs so
// the splitter can cut on them, and drops markup.
func extractMarkdown(data []byte) ([]string, error) {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)
	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		var txt string
		switch n := node.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			txt = blockLines(n, reader.Source())
		default:
			txt = inlineText(n, reader.Source())
		}
		if txt != "" {
			blocks = append(blocks, txt)
		}
	}
	return []string{strings.Join(blocks, "\n\n")}, nil
}

func blockLines(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(source))
	}
	return strings.TrimSpace(sb.String())
}

func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node.Kind() == ast.KindParagraph || node.Kind() == ast.KindListItem || node.Kind() == ast.KindHeading {
				sb.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		if t, ok := node.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString(" ")
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
