package parser

import "encoding/xml"

// xmlNode is a generic element tree. TwinCAT object files carry many
// vendor attributes and optional sections, so we decode everything and
// query the paths we care about instead of mirroring the schema.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []*xmlNode `xml:",any"`
}

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// attrOr returns the attribute value, or fallback when it is absent or empty.
func (n *xmlNode) attrOr(name, fallback string) string {
	if v, ok := n.attr(name); ok && v != "" {
		return v
	}
	return fallback
}

func (n *xmlNode) child(localName string) (*xmlNode, bool) {
	for _, c := range n.Children {
		if c.XMLName.Local == localName {
			return c, true
		}
	}
	return nil, false
}

// find follows a chain of direct children, e.g. find("Implementation", "ST").
func (n *xmlNode) find(path ...string) (*xmlNode, bool) {
	cur := n
	for _, name := range path {
		next, ok := cur.child(name)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// descendants returns every element below n with the given local name, in
// document order.
func (n *xmlNode) descendants(localName string) []*xmlNode {
	var out []*xmlNode
	var walk func(*xmlNode)
	walk = func(cur *xmlNode) {
		for _, c := range cur.Children {
			if c.XMLName.Local == localName {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// firstElement returns the first element child, if any.
func (n *xmlNode) firstElement() (*xmlNode, bool) {
	if len(n.Children) == 0 {
		return nil, false
	}
	return n.Children[0], true
}
