package htmlutil

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// GetText returns the concatenated text nodes under node (textContent).
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true,
	atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true, atom.Tr: true,
	atom.Ul: true,
}

var skippedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Template: true, atom.Noscript: true,
}

var (
	inlineSpace   = regexp.MustCompile(`[ \t\f\r]+`)
	blankLines    = regexp.MustCompile(`\n\s*\n+`)
	spaceNewlines = regexp.MustCompile(` *\n *`)
)

// InnerText approximates the browser's innerText: whitespace collapsed, block
// level elements and <br> produce line breaks.
func InnerText(node *html.Node) string {
	var buffer bytes.Buffer
	innerTextRecursive(node, &buffer)

	text := inlineSpace.ReplaceAllString(buffer.String(), " ")
	text = spaceNewlines.ReplaceAllString(text, "\n")
	text = blankLines.ReplaceAllString(text, "\n")
	return strings.Trim(text, " \n")
}

func innerTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(strings.ReplaceAll(node.Data, "\n", " "))
		return
	case html.ElementNode:
		if skippedElements[node.DataAtom] {
			return
		}
		if node.DataAtom == atom.Br {
			buffer.WriteByte('\n')
			return
		}
	}

	block := node.Type == html.ElementNode && blockElements[node.DataAtom]
	if block {
		buffer.WriteByte('\n')
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		innerTextRecursive(child, buffer)
	}
	if block {
		buffer.WriteByte('\n')
	}
}

// Attr returns the value of the attribute key on node.
func Attr(node *html.Node, key string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// ClosestAttr walks up from node (inclusive) and returns the first ancestor
// carrying the attribute key.
func ClosestAttr(node *html.Node, key string) (*html.Node, string) {
	for n := node; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if v, ok := Attr(n, key); ok {
			return n, v
		}
	}
	return nil, ""
}
