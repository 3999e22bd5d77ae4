package tooltip

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Class names shared between the builder and the patcher. Consumers style
// against these.
const (
	ClassRoot     = "wordtip"
	ClassPhrase   = "wordtip-phrase"
	ClassWord     = "wordtip-word"
	ClassTerm     = "wordtip-term"
	ClassPhonetic = "wordtip-phonetic"
	ClassMeaning  = "wordtip-meaning"
	ClassLoading  = "wordtip-loading"
	ClassError    = "wordtip-error"
	ClassText     = "wordtip-text"
	ClassAudio    = "wordtip-audio"
)

func newElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

func newText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// AttrVal returns the value of the named attribute, or "" when absent.
func AttrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether n carries the given class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(AttrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// FindByClass returns the first descendant of n (or n itself) carrying the
// given class, depth-first, or nil.
func FindByClass(n *html.Node, class string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && HasClass(n, class) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := FindByClass(child, class); found != nil {
			return found
		}
	}
	return nil
}

// FindAllByClass returns every descendant of n (or n itself) carrying the
// given class, in document order.
func FindAllByClass(n *html.Node, class string) []*html.Node {
	var found []*html.Node
	if n == nil {
		return found
	}
	if n.Type == html.ElementNode && HasClass(n, class) {
		found = append(found, n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		found = append(found, FindAllByClass(child, class)...)
	}
	return found
}

// removeChildrenByClass detaches every direct child of n carrying the
// given class.
func removeChildrenByClass(n *html.Node, class string) {
	var stale []*html.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && HasClass(child, class) {
			stale = append(stale, child)
		}
	}
	for _, child := range stale {
		n.RemoveChild(child)
	}
}

// setText replaces the children of n with a single text node. User text is
// escaped during rendering, never interpreted as markup.
func setText(n *html.Node, text string) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	n.AppendChild(newText(text))
}

// Text returns the concatenated text content of n and its descendants.
func Text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// Render serializes the node tree to HTML.
func Render(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}
