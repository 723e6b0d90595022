package xmlcodec

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// per-kind property element names.
var propertyElements = map[cmis.PropertyType]string{
	cmis.PropertyString:   "propertyString",
	cmis.PropertyID:       "propertyId",
	cmis.PropertyInteger:  "propertyInteger",
	cmis.PropertyDecimal:  "propertyDecimal",
	cmis.PropertyBoolean:  "propertyBoolean",
	cmis.PropertyDateTime: "propertyDateTime",
	cmis.PropertyHTML:     "propertyHtml",
	cmis.PropertyURI:      "propertyUri",
}

var propertyKindForValueElement = func() map[string]cmis.PropertyType {
	m := make(map[string]cmis.PropertyType, len(propertyElements))
	for pt, el := range propertyElements {
		m[el] = pt
	}
	return m
}()

// DecodeObject decodes one cmis:object document.
func (c *Codec) DecodeObject(r io.Reader) (*model.ObjectData, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	return c.decodeObject(root)
}

func (c *Codec) decodeObject(n *node) (*model.ObjectData, error) {
	obj := &model.ObjectData{}

	if ch := n.child("properties"); ch != nil {
		props, err := c.decodeProperties(ch)
		if err != nil {
			return nil, err
		}
		obj.Properties = props
	}
	if ch := n.child("allowableActions"); ch != nil {
		obj.AllowableActions = c.decodeAllowableActions(ch)
	}
	for _, ch := range n.eachChild("relationship") {
		rel, err := c.decodeObject(ch)
		if err != nil {
			return nil, err
		}
		obj.Relationships = append(obj.Relationships, rel)
	}
	if ch := n.child("changeEventInfo"); ch != nil {
		obj.ChangeEventInfo = c.decodeChangeEventInfo(ch)
	}
	if ch := n.child("acl"); ch != nil {
		obj.Acl = c.decodeAcl(ch)
	}
	obj.ExactACL = n.childBool("exactACL")
	if ch := n.child("policyIds"); ch != nil {
		obj.PolicyIDs = &model.PolicyIDList{
			IDs:        ch.childValues("id"),
			Extensions: ch.extensions(),
		}
	}
	for _, ch := range n.eachChild("rendition") {
		obj.Renditions = append(obj.Renditions, c.decodeRendition(ch))
	}

	obj.Extensions = n.extensions()
	return obj, nil
}

// DecodeProperties decodes a standalone cmis:properties document.
func (c *Codec) DecodeProperties(r io.Reader) (*model.Properties, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	return c.decodeProperties(root)
}

// decodeProperties walks the per-kind property elements in wire order. The
// element name is the kind discriminator; everything else about the property
// rides in attributes and cmis:value children.
func (c *Codec) decodeProperties(n *node) (*model.Properties, error) {
	props := &model.Properties{}
	for _, ch := range n.children {
		if ch.consumed {
			continue
		}
		kind, ok := propertyKindForValueElement[ch.name]
		if !ok {
			continue
		}
		ch.consumed = true
		p, err := c.decodeProperty(ch, kind)
		if err != nil {
			return nil, err
		}
		props.Add(p)
	}
	props.Extensions = n.extensions()
	return props, nil
}

func (c *Codec) decodeProperty(n *node, kind cmis.PropertyType) (*model.Property, error) {
	p := &model.Property{
		ID:          n.attr("", "propertyDefinitionId"),
		LocalName:   n.attr("", "localName"),
		DisplayName: n.attr("", "displayName"),
		QueryName:   n.attr("", "queryName"),
		Kind:        kind,
	}
	if p.ID == "" && p.QueryName == "" {
		return nil, fmt.Errorf("property element %s without propertyDefinitionId", n.name)
	}

	// A property element with no cmis:value children is the value-less
	// state; the empty set cannot be told apart from it on this envelope.
	raws := n.childValues("value")
	if len(raws) > 0 {
		values := make([]model.Value, 0, len(raws))
		for _, raw := range raws {
			v, err := parseXMLValue(kind, raw)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", p.ID, err)
			}
			values = append(values, v)
		}
		p.Values = values
	}

	p.Extensions = n.extensions()
	return p, nil
}

func (c *Codec) decodeAllowableActions(n *node) *model.AllowableActions {
	aa := &model.AllowableActions{Actions: make(map[cmis.Action]bool)}
	for _, ch := range n.children {
		if ch.consumed {
			continue
		}
		action, ok := cmis.ParseAction(ch.name)
		if !ok {
			continue
		}
		ch.consumed = true
		b := ch.value() == "true"
		aa.Actions[action] = b
	}
	aa.Extensions = n.extensions()
	return aa
}

func (c *Codec) decodeAcl(n *node) *model.Acl {
	acl := &model.Acl{}
	for _, ch := range n.eachChild("permission") {
		ace := &model.Ace{}
		if pr := ch.child("principal"); pr != nil {
			ace.PrincipalID = pr.childText("principalId")
		}
		ace.Permissions = ch.childValues("permission")
		if d := ch.childBool("direct"); d != nil {
			ace.Direct = *d
		}
		ace.Extensions = ch.extensions()
		acl.Aces = append(acl.Aces, ace)
	}
	acl.IsExact = n.childBool("exact")
	acl.Extensions = n.extensions()
	return acl
}

func (c *Codec) decodeChangeEventInfo(n *node) *model.ChangeEventInfo {
	info := &model.ChangeEventInfo{}
	raw := n.childText("changeType")
	ct, ok := cmis.ParseChangeType(raw)
	if !ok {
		c.logger().Warn("unrecognized change type", "value", raw)
	}
	info.ChangeType = ct
	if raw := n.childText("changeTime"); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			ts, err = time.Parse(time.RFC3339, raw)
		}
		if err != nil {
			c.logger().Warn("malformed change time", "value", raw)
		} else {
			info.ChangeTime = ts
		}
	}
	info.Extensions = n.extensions()
	return info
}

func (c *Codec) decodeRendition(n *node) *model.Rendition {
	return &model.Rendition{
		StreamID:            n.childText("streamId"),
		MimeType:            n.childText("mimetype"),
		Length:              n.childInt("length"),
		Kind:                n.childText("kind"),
		Title:               n.childText("title"),
		Height:              n.childInt("height"),
		Width:               n.childInt("width"),
		RenditionDocumentID: n.childText("renditionDocumentId"),
		Extensions:          n.extensions(),
	}
}

// DecodeAllowableActions decodes a standalone cmis:allowableActions document.
func (c *Codec) DecodeAllowableActions(r io.Reader) (*model.AllowableActions, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	return c.decodeAllowableActions(root), nil
}

// DecodeACL decodes a standalone cmis:acl document.
func (c *Codec) DecodeACL(r io.Reader) (*model.Acl, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	return c.decodeAcl(root), nil
}

// EncodeObject renders one cmis:object document. Known fields come first in
// fixed order, the extension tree last.
func (c *Codec) EncodeObject(obj *model.ObjectData) ([]byte, error) {
	if obj == nil {
		return nil, fmt.Errorf("nil object")
	}
	w := newWriter()
	if err := c.encodeObjectElement(w, "cmis:object", obj, nsAttr("cmis", NamespaceCore)); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

// encodeObjectElement writes one object record under the given element name.
// Relationship children are object records themselves, written under the
// cmis:relationship tag.
func (c *Codec) encodeObjectElement(w *writer, name string, obj *model.ObjectData, attrs ...xml.Attr) error {
	w.start(name, attrs...)
	if obj.Properties != nil {
		if err := c.encodeProperties(w, obj.Properties); err != nil {
			return err
		}
	}
	if obj.AllowableActions != nil {
		c.encodeAllowableActions(w, obj.AllowableActions)
	}
	for _, rel := range obj.Relationships {
		if err := c.encodeObjectElement(w, "cmis:relationship", rel); err != nil {
			return err
		}
	}
	if info := obj.ChangeEventInfo; info != nil {
		w.start("cmis:changeEventInfo")
		w.elementOpt("cmis:changeType", string(info.ChangeType))
		if !info.ChangeTime.IsZero() {
			w.element("cmis:changeTime", info.ChangeTime.Format(time.RFC3339Nano))
		}
		w.extensionList(info.Extensions)
		w.end("cmis:changeEventInfo")
	}
	if obj.Acl != nil {
		c.encodeAcl(w, obj.Acl)
	}
	w.elementBool("cmis:exactACL", obj.ExactACL)
	if p := obj.PolicyIDs; p != nil {
		w.start("cmis:policyIds")
		for _, id := range p.IDs {
			w.element("cmis:id", id)
		}
		w.extensionList(p.Extensions)
		w.end("cmis:policyIds")
	}
	for _, r := range obj.Renditions {
		c.encodeRendition(w, r)
	}
	w.extensionList(obj.Extensions)
	w.end(name)
	return nil
}

// EncodeProperties renders a standalone cmis:properties document.
func (c *Codec) EncodeProperties(props *model.Properties) ([]byte, error) {
	if props == nil {
		props = &model.Properties{}
	}
	w := newWriter()
	if err := c.encodeProperties(w, props, nsAttr("cmis", NamespaceCore)); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

func (c *Codec) encodeProperties(w *writer, props *model.Properties, rootAttrs ...xml.Attr) error {
	w.start("cmis:properties", rootAttrs...)
	for _, p := range props.List {
		el, ok := propertyElements[p.Kind]
		if !ok {
			return fmt.Errorf("property %s with unknown kind %q", p.ID, p.Kind)
		}
		name := "cmis:" + el
		var attrs []xml.Attr
		if p.ID != "" {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "propertyDefinitionId"}, Value: p.ID})
		}
		if p.LocalName != "" {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "localName"}, Value: p.LocalName})
		}
		if p.DisplayName != "" {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "displayName"}, Value: p.DisplayName})
		}
		if p.QueryName != "" {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "queryName"}, Value: p.QueryName})
		}
		w.start(name, attrs...)
		for _, v := range p.Values {
			w.element("cmis:value", formatXMLValue(v))
		}
		w.extensionList(p.Extensions)
		w.end(name)
	}
	w.extensionList(props.Extensions)
	w.end("cmis:properties")
	return nil
}

// encodeAllowableActions walks the closed action set in its fixed order so
// output is deterministic. createItem is 1.1-only.
func (c *Codec) encodeAllowableActions(w *writer, aa *model.AllowableActions) {
	w.start("cmis:allowableActions")
	for _, action := range cmis.AllActions {
		v, present := aa.Actions[action]
		if !present {
			continue
		}
		if action == cmis.CanCreateItem && !c.version().SupportsItems() {
			c.logger().Warn("dropping canCreateItem for 1.0 target")
			continue
		}
		w.element("cmis:"+string(action), boolText(v))
	}
	w.extensionList(aa.Extensions)
	w.end("cmis:allowableActions")
}

// EncodeACL renders a standalone cmis:acl document.
func (c *Codec) EncodeACL(acl *model.Acl) ([]byte, error) {
	if acl == nil {
		return nil, fmt.Errorf("nil acl")
	}
	w := newWriter()
	c.encodeAcl(w, acl, nsAttr("cmis", NamespaceCore))
	return w.bytes(), nil
}

func (c *Codec) encodeAcl(w *writer, acl *model.Acl, rootAttrs ...xml.Attr) {
	w.start("cmis:acl", rootAttrs...)
	for _, ace := range acl.Aces {
		w.start("cmis:permission")
		w.start("cmis:principal")
		w.element("cmis:principalId", ace.PrincipalID)
		w.end("cmis:principal")
		for _, p := range ace.Permissions {
			w.element("cmis:permission", p)
		}
		w.element("cmis:direct", boolText(ace.Direct))
		w.extensionList(ace.Extensions)
		w.end("cmis:permission")
	}
	w.elementBool("cmis:exact", acl.IsExact)
	w.extensionList(acl.Extensions)
	w.end("cmis:acl")
}

func (c *Codec) encodeRendition(w *writer, r *model.Rendition) {
	w.start("cmis:rendition")
	w.elementOpt("cmis:streamId", r.StreamID)
	w.elementOpt("cmis:mimetype", r.MimeType)
	w.elementInt("cmis:length", r.Length)
	w.elementOpt("cmis:kind", r.Kind)
	w.elementOpt("cmis:title", r.Title)
	w.elementInt("cmis:height", r.Height)
	w.elementInt("cmis:width", r.Width)
	w.elementOpt("cmis:renditionDocumentId", r.RenditionDocumentID)
	w.extensionList(r.Extensions)
	w.end("cmis:rendition")
}

func boolText(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
