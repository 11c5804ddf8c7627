package render

import "strings"

// Node is one element of the rendered intermediate tree. A node without a tag
// is a text node. Nodes carry resolved content and inline styles only, so
// block rendering can be tested without looking at markup.
type Node struct {
	Tag      string
	Class    string
	Style    string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// Attr is an ordered element attribute.
type Attr struct {
	Key string
	Val string
}

// El creates an element node.
func El(tag, class string, children ...*Node) *Node {
	return &Node{Tag: tag, Class: class, Children: children}
}

// Txt creates a text node.
func Txt(s string) *Node {
	return &Node{Text: s}
}

// WithStyle sets the inline style and returns n.
func (n *Node) WithStyle(style string) *Node {
	n.Style = style
	return n
}

// WithAttr appends an attribute and returns n.
func (n *Node) WithAttr(key, val string) *Node {
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
	return n
}

// Append adds children, skipping nil ones.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// TextContent concatenates the text of n and its descendants.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.walk(func(x *Node) {
		if x.Tag == "" {
			b.WriteString(x.Text)
		}
	})
	return b.String()
}

// FindAll returns the descendants (n included) whose tag matches.
func (n *Node) FindAll(tag string) []*Node {
	var out []*Node
	if n == nil {
		return out
	}
	n.walk(func(x *Node) {
		if x.Tag == tag {
			out = append(out, x)
		}
	})
	return out
}

// HasClass reports whether the class list of n contains class.
func (n *Node) HasClass(class string) bool {
	for _, c := range strings.Fields(n.Class) {
		if c == class {
			return true
		}
	}
	return false
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}
