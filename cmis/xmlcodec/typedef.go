package xmlcodec

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// xsi:type literals discriminating the type-definition variants.
var typeDefXSITypes = map[cmis.BaseTypeID]string{
	cmis.BaseTypeDocument:     "cmis:cmisTypeDocumentDefinitionType",
	cmis.BaseTypeFolder:       "cmis:cmisTypeFolderDefinitionType",
	cmis.BaseTypeRelationship: "cmis:cmisTypeRelationshipDefinitionType",
	cmis.BaseTypePolicy:       "cmis:cmisTypePolicyDefinitionType",
	cmis.BaseTypeItem:         "cmis:cmisTypeItemDefinitionType",
	cmis.BaseTypeSecondary:    "cmis:cmisTypeSecondaryDefinitionType",
}

var baseTypeForXSIType = func() map[string]cmis.BaseTypeID {
	m := make(map[string]cmis.BaseTypeID, len(typeDefXSITypes))
	for bt, x := range typeDefXSITypes {
		m[x] = bt
	}
	return m
}()

// per-kind property-definition element names.
var propertyDefElements = map[cmis.PropertyType]string{
	cmis.PropertyString:   "propertyStringDefinition",
	cmis.PropertyID:       "propertyIdDefinition",
	cmis.PropertyInteger:  "propertyIntegerDefinition",
	cmis.PropertyDecimal:  "propertyDecimalDefinition",
	cmis.PropertyBoolean:  "propertyBooleanDefinition",
	cmis.PropertyDateTime: "propertyDateTimeDefinition",
	cmis.PropertyHTML:     "propertyHtmlDefinition",
	cmis.PropertyURI:      "propertyUriDefinition",
}

var propertyKindForElement = func() map[string]cmis.PropertyType {
	m := make(map[string]cmis.PropertyType, len(propertyDefElements))
	for pt, el := range propertyDefElements {
		m[el] = pt
	}
	return m
}()

// DecodeTypeDefinition decodes one type-definition document.
func (c *Codec) DecodeTypeDefinition(r io.Reader) (*model.TypeDefinition, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	return c.decodeTypeDefinition(root)
}

// decodeTypeDefinition resolves the variant before touching any field: the
// xsi:type attribute when present, otherwise the baseId element. A record
// with neither is rejected instead of shape-guessed.
func (c *Codec) decodeTypeDefinition(n *node) (*model.TypeDefinition, error) {
	var baseID cmis.BaseTypeID
	if x := n.attr("", "type"); x != "" {
		bt, ok := baseTypeForXSIType[x]
		if !ok {
			return nil, fmt.Errorf("type definition with unknown xsi:type %q", x)
		}
		baseID = bt
	}

	t := &model.TypeDefinition{
		ID:             n.childText("id"),
		LocalName:      n.childText("localName"),
		LocalNamespace: n.childText("localNamespace"),
		DisplayName:    n.childText("displayName"),
		QueryName:      n.childText("queryName"),
		Description:    n.childText("description"),
		ParentID:       n.childText("parentId"),
	}

	baseRaw := n.childText("baseId")
	if baseID == "" {
		bt, ok := cmis.ParseBaseTypeID(baseRaw)
		if !ok {
			return nil, fmt.Errorf("type %s without valid base type id (got %q)", t.ID, baseRaw)
		}
		baseID = bt
	}
	t.BaseID = baseID

	t.Creatable = n.childBool("creatable")
	t.Fileable = n.childBool("fileable")
	t.Queryable = n.childBool("queryable")
	t.FulltextIndexed = n.childBool("fulltextIndexed")
	t.IncludedInSupertypeQuery = n.childBool("includedInSupertypeQuery")
	t.ControllablePolicy = n.childBool("controllablePolicy")
	t.ControllableACL = n.childBool("controllableACL")

	if ch := n.child("typeMutability"); ch != nil {
		t.TypeMutability = &model.TypeMutability{
			Create: ch.childBool("create"),
			Update: ch.childBool("update"),
			Delete: ch.childBool("delete"),
		}
	}

	// Property definitions arrive as per-kind elements; the element name
	// itself is the kind discriminator, so wire order is preserved as-is.
	for _, ch := range n.children {
		if ch.consumed {
			continue
		}
		kind, ok := propertyKindForElement[ch.name]
		if !ok {
			continue
		}
		ch.consumed = true
		def, err := c.decodePropertyDefinition(ch, kind)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", t.ID, err)
		}
		t.PropertyDefinitions = append(t.PropertyDefinitions, def)
	}

	switch baseID {
	case cmis.BaseTypeDocument:
		t.Document = &model.DocumentTypeFacet{
			Versionable: n.childBool("versionable"),
			ContentStreamAllowed: enumText(c, n, "contentStreamAllowed",
				cmis.ParseContentStreamAllowed),
		}
	case cmis.BaseTypeRelationship:
		t.Relationship = &model.RelationshipTypeFacet{
			AllowedSourceTypeIDs: n.childValues("allowedSourceTypes"),
			AllowedTargetTypeIDs: n.childValues("allowedTargetTypes"),
		}
	}

	t.Extensions = n.extensions()
	return t, nil
}

func (c *Codec) decodePropertyDefinition(n *node, kind cmis.PropertyType) (*model.PropertyDefinition, error) {
	d := &model.PropertyDefinition{
		ID:             n.childText("id"),
		LocalName:      n.childText("localName"),
		LocalNamespace: n.childText("localNamespace"),
		DisplayName:    n.childText("displayName"),
		QueryName:      n.childText("queryName"),
		Description:    n.childText("description"),
		Kind:           kind,
	}
	if d.ID == "" {
		return nil, fmt.Errorf("property definition without id")
	}

	// propertyType repeats the element-name discriminator; a contradiction
	// means a broken producer.
	if raw := n.childText("propertyType"); raw != "" && raw != string(kind) {
		return nil, fmt.Errorf("property %s: element kind %s contradicts propertyType %q", d.ID, kind, raw)
	}

	d.Cardinality = enumText(c, n, "cardinality", cmis.ParseCardinality)
	d.Updatability = enumText(c, n, "updatability", cmis.ParseUpdatability)
	d.Inherited = n.childBool("inherited")
	d.Required = n.childBool("required")
	d.Queryable = n.childBool("queryable")
	d.Orderable = n.childBool("orderable")
	d.OpenChoice = n.childBool("openChoice")

	if ch := n.child("defaultValue"); ch != nil {
		values, err := decodeValueChildren(ch, kind)
		if err != nil {
			return nil, fmt.Errorf("property %s default value: %w", d.ID, err)
		}
		d.DefaultValue = values
	}

	switch kind {
	case cmis.PropertyString:
		d.MaxLength = n.childInt("maxLength")
	case cmis.PropertyInteger:
		d.MinInteger = n.childInt("minValue")
		d.MaxInteger = n.childInt("maxValue")
	case cmis.PropertyDecimal:
		if raw := n.childText("minValue"); raw != "" {
			if v, err := parseXMLValue(cmis.PropertyDecimal, raw); err == nil {
				dec := v.Decimal()
				d.MinDecimal = &dec
			}
		}
		if raw := n.childText("maxValue"); raw != "" {
			if v, err := parseXMLValue(cmis.PropertyDecimal, raw); err == nil {
				dec := v.Decimal()
				d.MaxDecimal = &dec
			}
		}
		if p := n.childInt("precision"); p != nil {
			prec := cmis.DecimalPrecision(*p)
			d.Precision = &prec
		}
	case cmis.PropertyDateTime:
		d.Resolution = enumText(c, n, "resolution", cmis.ParseDateTimeResolution)
	}

	for _, ch := range n.eachChild("choice") {
		choice, err := decodeChoice(ch, kind)
		if err != nil {
			c.logger().Warn("skipping malformed choice", "property", d.ID, "error", err)
			continue
		}
		d.Choices = append(d.Choices, choice)
	}

	d.Extensions = n.extensions()
	return d, nil
}

func decodeChoice(n *node, kind cmis.PropertyType) (*model.Choice, error) {
	choice := &model.Choice{DisplayName: n.attr("", "displayName")}
	values, err := decodeValueChildren(n, kind)
	if err != nil {
		return nil, err
	}
	choice.Values = values
	for _, ch := range n.eachChild("choice") {
		nested, err := decodeChoice(ch, kind)
		if err != nil {
			return nil, err
		}
		choice.Choices = append(choice.Choices, nested)
	}
	return choice, nil
}

// decodeValueChildren parses the cmis:value children of n as kind-typed
// values. A present parent with no value children is the explicit empty set.
func decodeValueChildren(n *node, kind cmis.PropertyType) ([]model.Value, error) {
	raws := n.childValues("value")
	values := make([]model.Value, 0, len(raws))
	for _, raw := range raws {
		v, err := parseXMLValue(kind, raw)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// DecodeTypeChildren decodes one page of a type-children listing.
func (c *Codec) DecodeTypeChildren(r io.Reader) (*model.TypeDefinitionList, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	list := &model.TypeDefinitionList{
		HasMoreItems: root.childBool("hasMoreItems"),
		NumItems:     root.childInt("numItems"),
	}
	for _, ch := range root.eachChild("types") {
		t, err := c.decodeTypeDefinition(ch)
		if err != nil {
			return nil, err
		}
		list.Types = append(list.Types, t)
	}
	return list, nil
}

// DecodeTypeDescendants decodes a type-descendants tree.
func (c *Codec) DecodeTypeDescendants(r io.Reader) ([]*model.TypeDefinitionContainer, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	return c.decodeTypeContainers(root)
}

func (c *Codec) decodeTypeContainers(n *node) ([]*model.TypeDefinitionContainer, error) {
	var out []*model.TypeDefinitionContainer
	for _, ch := range n.eachChild("container") {
		container := &model.TypeDefinitionContainer{}
		if tn := ch.child("type"); tn != nil {
			t, err := c.decodeTypeDefinition(tn)
			if err != nil {
				return nil, err
			}
			container.Type = t
		}
		children, err := c.decodeTypeContainers(ch)
		if err != nil {
			return nil, err
		}
		container.Children = children
		out = append(out, container)
	}
	return out, nil
}

// EncodeTypeDefinition renders one type-definition document carrying the
// xsi:type variant discriminator.
func (c *Codec) EncodeTypeDefinition(t *model.TypeDefinition) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if !c.version().SupportsItems() &&
		(t.BaseID == cmis.BaseTypeItem || t.BaseID == cmis.BaseTypeSecondary) {
		return nil, fmt.Errorf("type %s: base type %s requires CMIS 1.1", t.ID, t.BaseID)
	}
	w := newWriter()
	w.start("cmis:type",
		nsAttr("cmis", NamespaceCore),
		nsAttr("xsi", NamespaceXSI),
		xml.Attr{Name: xml.Name{Space: "xsi", Local: "type"}, Value: typeDefXSITypes[t.BaseID]})
	c.encodeTypeDefinitionBody(w, t)
	w.end("cmis:type")
	return w.bytes(), nil
}

func (c *Codec) encodeTypeDefinitionBody(w *writer, t *model.TypeDefinition) {
	w.element("cmis:id", t.ID)
	w.elementOpt("cmis:localName", t.LocalName)
	w.elementOpt("cmis:localNamespace", t.LocalNamespace)
	w.elementOpt("cmis:displayName", t.DisplayName)
	w.elementOpt("cmis:queryName", t.QueryName)
	w.elementOpt("cmis:description", t.Description)
	w.element("cmis:baseId", string(t.BaseID))
	w.elementOpt("cmis:parentId", t.ParentID)
	w.elementBool("cmis:creatable", t.Creatable)
	w.elementBool("cmis:fileable", t.Fileable)
	w.elementBool("cmis:queryable", t.Queryable)
	w.elementBool("cmis:fulltextIndexed", t.FulltextIndexed)
	w.elementBool("cmis:includedInSupertypeQuery", t.IncludedInSupertypeQuery)
	w.elementBool("cmis:controllablePolicy", t.ControllablePolicy)
	w.elementBool("cmis:controllableACL", t.ControllableACL)
	if tm := t.TypeMutability; tm != nil {
		w.start("cmis:typeMutability")
		w.elementBool("cmis:create", tm.Create)
		w.elementBool("cmis:update", tm.Update)
		w.elementBool("cmis:delete", tm.Delete)
		w.end("cmis:typeMutability")
	}
	for _, d := range t.PropertyDefinitions {
		c.encodePropertyDefinition(w, d)
	}
	if f := t.Document; f != nil {
		w.elementBool("cmis:versionable", f.Versionable)
		w.elementOpt("cmis:contentStreamAllowed", string(f.ContentStreamAllowed))
	}
	if f := t.Relationship; f != nil {
		for _, id := range f.AllowedSourceTypeIDs {
			w.element("cmis:allowedSourceTypes", id)
		}
		for _, id := range f.AllowedTargetTypeIDs {
			w.element("cmis:allowedTargetTypes", id)
		}
	}
	w.extensionList(t.Extensions)
}

func (c *Codec) encodePropertyDefinition(w *writer, d *model.PropertyDefinition) {
	name := "cmis:" + propertyDefElements[d.Kind]
	w.start(name)
	w.element("cmis:id", d.ID)
	w.elementOpt("cmis:localName", d.LocalName)
	w.elementOpt("cmis:localNamespace", d.LocalNamespace)
	w.elementOpt("cmis:displayName", d.DisplayName)
	w.elementOpt("cmis:queryName", d.QueryName)
	w.elementOpt("cmis:description", d.Description)
	w.element("cmis:propertyType", string(d.Kind))
	w.elementOpt("cmis:cardinality", string(d.Cardinality))
	w.elementOpt("cmis:updatability", string(d.Updatability))
	w.elementBool("cmis:inherited", d.Inherited)
	w.elementBool("cmis:required", d.Required)
	w.elementBool("cmis:queryable", d.Queryable)
	w.elementBool("cmis:orderable", d.Orderable)
	if d.DefaultValue != nil {
		w.start("cmis:defaultValue")
		for _, v := range d.DefaultValue {
			w.element("cmis:value", formatXMLValue(v))
		}
		w.end("cmis:defaultValue")
	}
	switch d.Kind {
	case cmis.PropertyString:
		w.elementInt("cmis:maxLength", d.MaxLength)
	case cmis.PropertyInteger:
		w.elementInt("cmis:minValue", d.MinInteger)
		w.elementInt("cmis:maxValue", d.MaxInteger)
	case cmis.PropertyDecimal:
		if d.MinDecimal != nil {
			w.element("cmis:minValue", d.MinDecimal.String())
		}
		if d.MaxDecimal != nil {
			w.element("cmis:maxValue", d.MaxDecimal.String())
		}
		if d.Precision != nil {
			p := int64(*d.Precision)
			w.elementInt("cmis:precision", &p)
		}
	case cmis.PropertyDateTime:
		w.elementOpt("cmis:resolution", string(d.Resolution))
	}
	w.elementBool("cmis:openChoice", d.OpenChoice)
	for _, choice := range d.Choices {
		c.encodeChoice(w, choice)
	}
	w.extensionList(d.Extensions)
	w.end(name)
}

func (c *Codec) encodeChoice(w *writer, choice *model.Choice) {
	var attrs []xml.Attr
	if choice.DisplayName != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "displayName"}, Value: choice.DisplayName})
	}
	w.start("cmis:choice", attrs...)
	for _, v := range choice.Values {
		w.element("cmis:value", formatXMLValue(v))
	}
	for _, nested := range choice.Choices {
		c.encodeChoice(w, nested)
	}
	w.end("cmis:choice")
}
