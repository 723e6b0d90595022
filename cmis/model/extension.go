// Package model holds the in-memory content model shared by the wire codecs:
// repository descriptions, type and property definitions, objects, property
// bags, ACLs, allowable actions and the extension tree that carries unknown
// wire content losslessly.
//
// Values in this package are plain data. Decoders construct them fresh per
// response and callers must treat them as immutable; updates produce new
// instances.
package model

// ExtensionAttribute is one attribute of an extension element. Attributes
// keep their wire order so round-tripping is byte-stable.
type ExtensionAttribute struct {
	Name      string
	Namespace string
	Value     string
}

// ExtensionNode is a name/namespace/attributes/value-or-children tree node
// used to carry wire content the model does not otherwise understand. A node
// has either a Value or Children, never both.
type ExtensionNode struct {
	Name       string
	Namespace  string
	Attributes []ExtensionAttribute
	Value      string
	Children   []*ExtensionNode
}

// Clone returns a deep copy of the node.
func (n *ExtensionNode) Clone() *ExtensionNode {
	if n == nil {
		return nil
	}
	c := &ExtensionNode{
		Name:      n.Name,
		Namespace: n.Namespace,
		Value:     n.Value,
	}
	if len(n.Attributes) > 0 {
		c.Attributes = append([]ExtensionAttribute(nil), n.Attributes...)
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}
