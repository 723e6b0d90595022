package jsoncodec

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// DecodeTypeDefinition decodes one type definition from wire bytes.
func (c *Codec) DecodeTypeDefinition(data []byte) (*model.TypeDefinition, error) {
	m, err := ParseObject(data)
	if err != nil {
		return nil, err
	}
	return c.decodeTypeDefinition(m)
}

// decodeTypeDefinition dispatches on the explicit baseId discriminator
// first, then decodes the variant's fields. A missing or unknown baseId is
// a structural decode failure.
func (c *Codec) decodeTypeDefinition(m map[string]any) (*model.TypeDefinition, error) {
	o := newObj(m)

	baseRaw := o.str("baseId")
	baseID, ok := cmis.ParseBaseTypeID(baseRaw)
	if !ok {
		return nil, fmt.Errorf("type definition without valid base type id (got %q)", baseRaw)
	}

	t := &model.TypeDefinition{
		ID:             o.str("id"),
		LocalName:      o.str("localName"),
		LocalNamespace: o.str("localNamespace"),
		DisplayName:    o.str("displayName"),
		QueryName:      o.str("queryName"),
		Description:    o.str("description"),
		BaseID:         baseID,
		ParentID:       o.str("parentId"),

		Creatable:                o.boolPtr("creatable"),
		Fileable:                 o.boolPtr("fileable"),
		Queryable:                o.boolPtr("queryable"),
		FulltextIndexed:          o.boolPtr("fulltextIndexed"),
		IncludedInSupertypeQuery: o.boolPtr("includedInSupertypeQuery"),
		ControllablePolicy:       o.boolPtr("controllablePolicy"),
		ControllableACL:          o.boolPtr("controllableACL"),
	}

	if tm := o.object("typeMutability"); tm != nil {
		to := newObj(tm)
		t.TypeMutability = &model.TypeMutability{
			Create: to.boolPtr("create"),
			Update: to.boolPtr("update"),
			Delete: to.boolPtr("delete"),
		}
	}

	switch baseID {
	case cmis.BaseTypeDocument:
		t.Document = &model.DocumentTypeFacet{
			Versionable:          o.boolPtr("versionable"),
			ContentStreamAllowed: enumField(c, o, "contentStreamAllowed", cmis.ParseContentStreamAllowed),
		}
	case cmis.BaseTypeRelationship:
		t.Relationship = &model.RelationshipTypeFacet{
			AllowedSourceTypeIDs: o.strings("allowedSourceTypes"),
			AllowedTargetTypeIDs: o.strings("allowedTargetTypes"),
		}
	}

	if defs := o.object("propertyDefinitions"); defs != nil {
		// Wire order of object keys is not recoverable from a map; sort
		// ids so the model order is at least deterministic.
		for _, id := range sortedKeys(defs) {
			dm, ok := defs[id].(map[string]any)
			if !ok {
				c.logger().Warn("skipping malformed property definition", "property", id)
				continue
			}
			def, err := c.decodePropertyDefinition(dm)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", t.ID, err)
			}
			t.PropertyDefinitions = append(t.PropertyDefinitions, def)
		}
	}

	t.Extensions = o.extensions()
	return t, nil
}

// decodePropertyDefinition discovers the propertyType discriminator, then
// decodes the kind's facets, default value and choice list.
func (c *Codec) decodePropertyDefinition(m map[string]any) (*model.PropertyDefinition, error) {
	o := newObj(m)

	kindRaw := o.str("propertyType")
	kind, ok := cmis.ParsePropertyType(kindRaw)
	if !ok {
		return nil, fmt.Errorf("property definition without valid property type (got %q)", kindRaw)
	}

	d := &model.PropertyDefinition{
		ID:             o.str("id"),
		LocalName:      o.str("localName"),
		LocalNamespace: o.str("localNamespace"),
		DisplayName:    o.str("displayName"),
		QueryName:      o.str("queryName"),
		Description:    o.str("description"),
		Kind:           kind,

		Inherited:  o.boolPtr("inherited"),
		Required:   o.boolPtr("required"),
		Queryable:  o.boolPtr("queryable"),
		Orderable:  o.boolPtr("orderable"),
		OpenChoice: o.boolPtr("openChoice"),
	}

	d.Cardinality = enumField(c, o, "cardinality", cmis.ParseCardinality)
	d.Updatability = enumField(c, o, "updatability", cmis.ParseUpdatability)

	switch kind {
	case cmis.PropertyString:
		d.MaxLength = o.intPtr("maxLength")
	case cmis.PropertyInteger:
		d.MinInteger = o.intPtr("minValue")
		d.MaxInteger = o.intPtr("maxValue")
	case cmis.PropertyDecimal:
		d.MinDecimal = o.decimalPtr("minValue")
		d.MaxDecimal = o.decimalPtr("maxValue")
		if p := o.intPtr("precision"); p != nil {
			prec := cmis.DecimalPrecision(*p)
			d.Precision = &prec
		}
	case cmis.PropertyDateTime:
		d.Resolution = enumField(c, o, "resolution", cmis.ParseDateTimeResolution)
	}

	if raw, present := o.take("defaultValue"); present {
		values, err := c.decodeValueList(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("property %s default value: %w", d.ID, err)
		}
		d.DefaultValue = values
	}

	for _, v := range o.array("choice") {
		cm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		choice, err := c.decodeChoice(kind, cm)
		if err != nil {
			// Unrecognized choice values are an interop anomaly, not fatal.
			c.logger().Warn("skipping malformed choice entry", "property", d.ID, "error", err)
			continue
		}
		d.Choices = append(d.Choices, choice)
	}

	d.Extensions = o.extensions()
	return d, nil
}

func (c *Codec) decodeChoice(kind cmis.PropertyType, m map[string]any) (*model.Choice, error) {
	o := newObj(m)
	choice := &model.Choice{DisplayName: o.str("displayName")}
	if raw, present := o.take("value"); present {
		values, err := c.decodeValueList(kind, raw)
		if err != nil {
			return nil, err
		}
		choice.Values = values
	}
	for _, v := range o.array("choice") {
		cm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		sub, err := c.decodeChoice(kind, cm)
		if err != nil {
			return nil, err
		}
		choice.Choices = append(choice.Choices, sub)
	}
	return choice, nil
}

// decodeValueList parses a bare scalar or an array into a value list. A
// JSON null yields an empty, set list.
func (c *Codec) decodeValueList(kind cmis.PropertyType, raw any) ([]model.Value, error) {
	switch t := raw.(type) {
	case nil:
		return []model.Value{}, nil
	case []any:
		values := make([]model.Value, 0, len(t))
		for _, item := range t {
			v, err := parseValue(kind, item)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, nil
	default:
		v, err := parseValue(kind, raw)
		if err != nil {
			return nil, err
		}
		return []model.Value{v}, nil
	}
}

// DecodeTypeChildren decodes one page of type children.
func (c *Codec) DecodeTypeChildren(data []byte) (*model.TypeDefinitionList, error) {
	m, err := ParseObject(data)
	if err != nil {
		return nil, err
	}
	o := newObj(m)
	list := &model.TypeDefinitionList{
		HasMoreItems: o.boolPtr("hasMoreItems"),
		NumItems:     o.intPtr("numItems"),
	}
	for _, v := range o.array("types") {
		tm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		t, err := c.decodeTypeDefinition(tm)
		if err != nil {
			return nil, err
		}
		list.Types = append(list.Types, t)
	}
	return list, nil
}

// DecodeTypeDescendants decodes a type-descendants tree.
func (c *Codec) DecodeTypeDescendants(data []byte) ([]*model.TypeDefinitionContainer, error) {
	arr, err := ParseArray(data)
	if err != nil {
		return nil, err
	}
	return c.decodeTypeContainers(arr)
}

func (c *Codec) decodeTypeContainers(arr []any) ([]*model.TypeDefinitionContainer, error) {
	var out []*model.TypeDefinitionContainer
	for _, v := range arr {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		o := newObj(m)
		container := &model.TypeDefinitionContainer{}
		if tm := o.object("type"); tm != nil {
			t, err := c.decodeTypeDefinition(tm)
			if err != nil {
				return nil, err
			}
			container.Type = t
		}
		if children := o.array("children"); children != nil {
			sub, err := c.decodeTypeContainers(children)
			if err != nil {
				return nil, err
			}
			container.Children = sub
		}
		out = append(out, container)
	}
	return out, nil
}

// EncodeTypeDefinition renders a type definition. Encoding is exhaustive
// over the closed variant set; item and secondary types targeting CMIS 1.0
// are rejected since that version cannot express them.
func (c *Codec) EncodeTypeDefinition(t *model.TypeDefinition) (map[string]any, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if !c.version().SupportsItems() &&
		(t.BaseID == cmis.BaseTypeItem || t.BaseID == cmis.BaseTypeSecondary) {
		return nil, fmt.Errorf("base type %s does not exist in CMIS %s", t.BaseID, c.version())
	}

	out := make(map[string]any)
	putStr(out, "id", t.ID)
	putStr(out, "localName", t.LocalName)
	putStr(out, "localNamespace", t.LocalNamespace)
	putStr(out, "displayName", t.DisplayName)
	putStr(out, "queryName", t.QueryName)
	putStr(out, "description", t.Description)
	out["baseId"] = string(t.BaseID)
	putStr(out, "parentId", t.ParentID)
	putBool(out, "creatable", t.Creatable)
	putBool(out, "fileable", t.Fileable)
	putBool(out, "queryable", t.Queryable)
	putBool(out, "fulltextIndexed", t.FulltextIndexed)
	putBool(out, "includedInSupertypeQuery", t.IncludedInSupertypeQuery)
	putBool(out, "controllablePolicy", t.ControllablePolicy)
	putBool(out, "controllableACL", t.ControllableACL)
	if tm := t.TypeMutability; tm != nil {
		m := make(map[string]any)
		putBool(m, "create", tm.Create)
		putBool(m, "update", tm.Update)
		putBool(m, "delete", tm.Delete)
		out["typeMutability"] = m
	}

	switch t.BaseID {
	case cmis.BaseTypeDocument:
		if f := t.Document; f != nil {
			putBool(out, "versionable", f.Versionable)
			putStr(out, "contentStreamAllowed", string(f.ContentStreamAllowed))
		}
	case cmis.BaseTypeRelationship:
		if f := t.Relationship; f != nil {
			if len(f.AllowedSourceTypeIDs) > 0 {
				out["allowedSourceTypes"] = toAnySlice(f.AllowedSourceTypeIDs)
			}
			if len(f.AllowedTargetTypeIDs) > 0 {
				out["allowedTargetTypes"] = toAnySlice(f.AllowedTargetTypeIDs)
			}
		}
	case cmis.BaseTypeFolder, cmis.BaseTypePolicy, cmis.BaseTypeItem, cmis.BaseTypeSecondary:
		// No variant attributes.
	}

	if len(t.PropertyDefinitions) > 0 {
		defs := make(map[string]any, len(t.PropertyDefinitions))
		for _, d := range t.PropertyDefinitions {
			enc, err := c.encodePropertyDefinition(d)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", t.ID, err)
			}
			defs[d.ID] = enc
		}
		out["propertyDefinitions"] = defs
	}

	writeExtensions(out, t.Extensions)
	return out, nil
}

func (c *Codec) encodePropertyDefinition(d *model.PropertyDefinition) (map[string]any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	out := make(map[string]any)
	putStr(out, "id", d.ID)
	putStr(out, "localName", d.LocalName)
	putStr(out, "localNamespace", d.LocalNamespace)
	putStr(out, "displayName", d.DisplayName)
	putStr(out, "queryName", d.QueryName)
	putStr(out, "description", d.Description)
	out["propertyType"] = string(d.Kind)
	putStr(out, "cardinality", string(d.Cardinality))
	putStr(out, "updatability", string(d.Updatability))
	putBool(out, "inherited", d.Inherited)
	putBool(out, "required", d.Required)
	putBool(out, "queryable", d.Queryable)
	putBool(out, "orderable", d.Orderable)
	putBool(out, "openChoice", d.OpenChoice)

	switch d.Kind {
	case cmis.PropertyString:
		putInt(out, "maxLength", d.MaxLength)
	case cmis.PropertyInteger:
		putInt(out, "minValue", d.MinInteger)
		putInt(out, "maxValue", d.MaxInteger)
	case cmis.PropertyDecimal:
		putDecimal(out, "minValue", d.MinDecimal)
		putDecimal(out, "maxValue", d.MaxDecimal)
		if d.Precision != nil {
			p := int64(*d.Precision)
			putInt(out, "precision", &p)
		}
	case cmis.PropertyDateTime:
		putStr(out, "resolution", string(d.Resolution))
	}

	if d.DefaultValue != nil {
		out["defaultValue"] = c.encodeValueList(d.Cardinality, d.DefaultValue)
	}
	if len(d.Choices) > 0 {
		arr := make([]any, 0, len(d.Choices))
		for _, choice := range d.Choices {
			arr = append(arr, c.encodeChoice(d.Cardinality, choice))
		}
		out["choice"] = arr
	}

	writeExtensions(out, d.Extensions)
	return out, nil
}

func (c *Codec) encodeChoice(card cmis.Cardinality, choice *model.Choice) map[string]any {
	out := make(map[string]any)
	putStr(out, "displayName", choice.DisplayName)
	if choice.Values != nil {
		out["value"] = c.encodeValueList(card, choice.Values)
	}
	if len(choice.Choices) > 0 {
		arr := make([]any, 0, len(choice.Choices))
		for _, sub := range choice.Choices {
			arr = append(arr, c.encodeChoice(card, sub))
		}
		out["choice"] = arr
	}
	return out
}

// encodeValueList applies the cardinality rule: SINGLE emits a bare scalar,
// multi-valued cardinalities always emit an array even for one value.
func (c *Codec) encodeValueList(card cmis.Cardinality, values []model.Value) any {
	if card == cmis.CardinalitySingle && len(values) == 1 {
		return c.encodeValue(values[0])
	}
	arr := make([]any, 0, len(values))
	for _, v := range values {
		arr = append(arr, c.encodeValue(v))
	}
	return arr
}

func putDecimal(out map[string]any, key string, v *decimal.Decimal) {
	if v != nil {
		out[key] = json.Number(v.String())
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
