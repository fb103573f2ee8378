package mailer

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindButton identifies call-to-action links written as [!Label](URL).
var KindButton = ast.NewNodeKind("Button")

// Button is a call-to-action link rendered as a styled anchor.
type Button struct {
	ast.BaseInline
	Label []byte
	URL   []byte
}

func (n *Button) Kind() ast.NodeKind { return KindButton }

func (n *Button) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Label": string(n.Label),
		"URL":   string(n.URL),
	}, nil)
}

type buttonParser struct{}

func (buttonParser) Trigger() []byte { return []byte{'['} }

func (buttonParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, []byte("[!")) {
		return nil
	}

	label, rest, ok := bytes.Cut(line[2:], []byte("]("))
	if !ok || len(label) == 0 {
		return nil
	}
	url, _, ok := bytes.Cut(rest, []byte(")"))
	if !ok || len(url) == 0 {
		return nil
	}

	block.Advance(2 + len(label) + 2 + len(url) + 1)
	return &Button{Label: label, URL: url}
}

type buttonRenderer struct{}

func (buttonRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindButton, func(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		b := node.(*Button)
		_, _ = w.WriteString(`<a class="button" href="`)
		_, _ = w.Write(util.EscapeHTML(b.URL))
		_, _ = w.WriteString(`">`)
		_, _ = w.Write(util.EscapeHTML(b.Label))
		_, _ = w.WriteString(`</a>`)
		return ast.WalkSkipChildren, nil
	})
}

// ButtonExtension registers the [!Label](URL) syntax.
type ButtonExtension struct{}

// Extend implements goldmark.Extender.
func (ButtonExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(util.Prioritized(buttonParser{}, 50)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(buttonRenderer{}, 50)))
}
