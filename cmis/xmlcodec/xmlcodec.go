// Package xmlcodec converts between the tag-tree wire envelope (the CMIS
// Core XML vocabulary) and the content model. It shares the JSON codec's
// algorithm: one forward pass per record, per-tag dispatch by name, unknown
// tags routed to the extension tree, and polymorphic records discriminated
// by an explicit attribute (xsi:type) before their fields are decoded.
package xmlcodec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
	"github.com/content-interop/cmis-go/internal/platform/logutil"
)

// Wire namespaces.
const (
	NamespaceCore = "http://docs.oasis-open.org/ns/cmis/core/200908/"
	NamespaceXSI  = "http://www.w3.org/2001/XMLSchema-instance"
)

// Codec converts tag-tree documents to and from the content model.
type Codec struct {
	// Version guards encoding; 1.1-only content is dropped or rejected
	// when targeting 1.0.
	Version cmis.Version

	// Logger receives interop warnings for skipped anomalies. Nil discards.
	Logger *slog.Logger
}

func (c *Codec) logger() *slog.Logger { return logutil.NoopIfNil(c.Logger) }

func (c *Codec) version() cmis.Version {
	if c.Version == "" {
		return cmis.Version11
	}
	return c.Version
}

// node is one parsed element of a tag-tree document.
type node struct {
	name     string
	space    string
	attrs    []xml.Attr
	text     string
	children []*node

	consumed bool
}

// parseTree consumes the token stream into an element tree in one forward
// pass.
func parseTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	var root *node
	var stack []*node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed XML body: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, space: t.Name.Space}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				n.attrs = append(n.attrs, a)
			}
			if len(stack) == 0 {
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("malformed XML body: unbalanced end tag %s", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("empty XML body")
	}
	return root, nil
}

func (n *node) value() string { return strings.TrimSpace(n.text) }

// child consumes and returns the first unconsumed child with the given
// local name in the core namespace.
func (n *node) child(name string) *node {
	for _, ch := range n.children {
		if !ch.consumed && ch.name == name {
			ch.consumed = true
			return ch
		}
	}
	return nil
}

// childValues consumes every child with the given name and returns their
// text values.
func (n *node) childValues(name string) []string {
	var out []string
	for _, ch := range n.children {
		if !ch.consumed && ch.name == name {
			ch.consumed = true
			out = append(out, ch.value())
		}
	}
	return out
}

// eachChild consumes every child with the given name.
func (n *node) eachChild(name string) []*node {
	var out []*node
	for _, ch := range n.children {
		if !ch.consumed && ch.name == name {
			ch.consumed = true
			out = append(out, ch)
		}
	}
	return out
}

func (n *node) childText(name string) string {
	if ch := n.child(name); ch != nil {
		return ch.value()
	}
	return ""
}

func (n *node) childBool(name string) *bool {
	ch := n.child(name)
	if ch == nil {
		return nil
	}
	b, err := strconv.ParseBool(ch.value())
	if err != nil {
		return nil
	}
	return &b
}

func (n *node) childInt(name string) *int64 {
	ch := n.child(name)
	if ch == nil {
		return nil
	}
	i, err := strconv.ParseInt(ch.value(), 10, 64)
	if err != nil {
		return nil
	}
	return &i
}

func (n *node) attr(space, local string) string {
	for _, a := range n.attrs {
		if a.Name.Local == local && (space == "" || a.Name.Space == space) {
			return a.Value
		}
	}
	return ""
}

// extensions converts every unconsumed child into extension nodes, the
// unrecognized-tag sink at each level of the descent.
func (n *node) extensions() []*model.ExtensionNode {
	var out []*model.ExtensionNode
	for _, ch := range n.children {
		if ch.consumed {
			continue
		}
		out = append(out, toExtension(ch))
	}
	return out
}

func toExtension(n *node) *model.ExtensionNode {
	ext := &model.ExtensionNode{Name: n.name, Namespace: n.space}
	for _, a := range n.attrs {
		ext.Attributes = append(ext.Attributes, model.ExtensionAttribute{
			Name:      a.Name.Local,
			Namespace: a.Name.Space,
			Value:     a.Value,
		})
	}
	if len(n.children) == 0 {
		ext.Value = n.value()
		return ext
	}
	for _, ch := range n.children {
		ext.Children = append(ext.Children, toExtension(ch))
	}
	return ext
}

// writer emits a tag-tree document. Known fields are written in fixed
// order; extension trees are emitted verbatim afterwards.
type writer struct {
	buf bytes.Buffer
}

func newWriter() *writer { return &writer{} }

func (w *writer) start(name string, attrs ...xml.Attr) {
	w.buf.WriteByte('<')
	w.buf.WriteString(name)
	for _, a := range attrs {
		w.buf.WriteByte(' ')
		if a.Name.Space != "" {
			w.buf.WriteString(a.Name.Space)
			w.buf.WriteByte(':')
		}
		w.buf.WriteString(a.Name.Local)
		w.buf.WriteString(`="`)
		xml.EscapeText(&w.buf, []byte(a.Value))
		w.buf.WriteByte('"')
	}
	w.buf.WriteByte('>')
}

func (w *writer) end(name string) {
	w.buf.WriteString("</")
	w.buf.WriteString(name)
	w.buf.WriteByte('>')
}

func (w *writer) element(name, value string) {
	w.start(name)
	xml.EscapeText(&w.buf, []byte(value))
	w.end(name)
}

func (w *writer) elementOpt(name, value string) {
	if value != "" {
		w.element(name, value)
	}
}

func (w *writer) elementBool(name string, v *bool) {
	if v != nil {
		w.element(name, strconv.FormatBool(*v))
	}
}

func (w *writer) elementInt(name string, v *int64) {
	if v != nil {
		w.element(name, strconv.FormatInt(*v, 10))
	}
}

// extension emits one extension node verbatim, prefixing names with their
// carried namespace when one is present.
func (w *writer) extension(n *model.ExtensionNode) {
	name := n.Name
	var attrs []xml.Attr
	if n.Namespace != "" && n.Namespace != NamespaceCore {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: n.Namespace})
	}
	for _, a := range n.Attributes {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	w.start(name, attrs...)
	if len(n.Children) > 0 {
		for _, ch := range n.Children {
			w.extension(ch)
		}
	} else {
		xml.EscapeText(&w.buf, []byte(n.Value))
	}
	w.end(name)
}

func (w *writer) extensionList(nodes []*model.ExtensionNode) {
	for _, n := range nodes {
		w.extension(n)
	}
}

func (w *writer) bytes() []byte { return w.buf.Bytes() }

func nsAttr(prefix, uri string) xml.Attr {
	return xml.Attr{Name: xml.Name{Space: "xmlns", Local: prefix}, Value: uri}
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value parsing: the tag-tree envelope carries every scalar as text, so
// kind-specific parsing starts from the literal.

func parseXMLValue(kind cmis.PropertyType, s string) (model.Value, error) {
	switch kind {
	case cmis.PropertyString, cmis.PropertyID, cmis.PropertyHTML, cmis.PropertyURI:
		return model.TextValue(kind, s)
	case cmis.PropertyInteger:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("invalid integer %q: %w", s, err)
		}
		return model.IntegerValue(i), nil
	case cmis.PropertyDecimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return model.Value{}, fmt.Errorf("invalid decimal %q: %w", s, err)
		}
		return model.DecimalValue(d), nil
	case cmis.PropertyBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return model.Value{}, fmt.Errorf("invalid boolean %q: %w", s, err)
		}
		return model.BooleanValue(b), nil
	case cmis.PropertyDateTime:
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			ts, err = time.Parse(time.RFC3339, s)
		}
		if err != nil {
			return model.Value{}, fmt.Errorf("invalid datetime %q", s)
		}
		return model.DateTimeValue(ts), nil
	}
	return model.Value{}, fmt.Errorf("unknown property type %q", kind)
}

func formatXMLValue(v model.Value) string {
	switch v.Kind() {
	case cmis.PropertyInteger:
		return strconv.FormatInt(v.Integer(), 10)
	case cmis.PropertyDecimal:
		return v.Decimal().String()
	case cmis.PropertyBoolean:
		return strconv.FormatBool(v.Boolean())
	case cmis.PropertyDateTime:
		return v.Time().Format(time.RFC3339Nano)
	default:
		return v.Text()
	}
}
