package jsoncodec

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// decodeVerboseProperties decodes a verbose property bag: per property an
// object carrying its own metadata including the explicit type tag.
func (c *Codec) decodeVerboseProperties(m map[string]any) (*model.Properties, error) {
	props := &model.Properties{}
	for _, key := range sortedKeys(m) {
		pm, ok := m[key].(map[string]any)
		if !ok {
			c.logger().Warn("skipping malformed verbose property", "key", key)
			continue
		}
		p, err := c.decodeVerboseProperty(key, pm)
		if err != nil {
			return nil, err
		}
		props.Add(p)
	}
	return props, nil
}

func (c *Codec) decodeVerboseProperty(key string, m map[string]any) (*model.Property, error) {
	o := newObj(m)

	kindRaw := o.str("type")
	kind, ok := cmis.ParsePropertyType(kindRaw)
	if !ok {
		return nil, fmt.Errorf("property %s without valid type tag (got %q)", key, kindRaw)
	}

	p := &model.Property{
		ID:          o.str("id"),
		LocalName:   o.str("localName"),
		DisplayName: o.str("displayName"),
		QueryName:   o.str("queryName"),
		Kind:        kind,
	}
	if p.ID == "" && p.QueryName == "" {
		// Query results key properties by query name and may omit the id.
		p.QueryName = key
	}

	// cardinality is advisory on the wire; the value shape already encodes
	// it, so it is consumed but not modeled.
	o.str("cardinality")

	if raw, present := o.take("value"); present && raw != nil {
		values, err := c.decodeValueList(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", key, err)
		}
		p.Values = values
	}

	p.Extensions = o.extensions()
	return p, nil
}

// decodeSuccinctProperties decodes a flat key to scalar-or-array bag. Each
// key's definition is resolved by consulting, in order: the object's own
// type, its secondary types, the built-in document and folder base types,
// and finally a forced reload of the owning type. When no definition is
// found the runtime value kind is sniffed, which cannot distinguish the
// text kinds from each other.
func (c *Codec) decodeSuccinctProperties(ctx context.Context, m map[string]any, resolver TypeResolver) (*model.Properties, error) {
	typeID, _ := m[cmis.PropObjectTypeID].(string)
	var secondaryIDs []string
	if arr, ok := m[cmis.PropSecondaryObjectTypeIDs].([]any); ok {
		for _, v := range arr {
			if s, ok := v.(string); ok {
				secondaryIDs = append(secondaryIDs, s)
			}
		}
	}

	props := &model.Properties{}
	for _, key := range sortedKeys(m) {
		raw := m[key]
		def := c.resolveDefinition(ctx, resolver, key, typeID, secondaryIDs)

		p := &model.Property{ID: key}
		if def != nil {
			p.LocalName = def.LocalName
			p.DisplayName = def.DisplayName
			p.QueryName = def.QueryName
			p.Kind = def.Kind
		} else {
			p.Kind = sniffKind(raw)
		}

		if raw != nil {
			values, err := c.decodeValueList(p.Kind, raw)
			if err != nil {
				// The definition may be stale relative to the data; fall
				// back to the sniffed kind before giving up.
				sniffed := sniffKind(raw)
				if sniffed != p.Kind {
					if values, err = c.decodeValueList(sniffed, raw); err == nil {
						c.logger().Warn("property value did not match definition kind, sniffed instead",
							"property", key, "defined", p.Kind, "sniffed", sniffed)
						p.Kind = sniffed
					}
				}
				if err != nil {
					return nil, fmt.Errorf("property %s: %w", key, err)
				}
			}
			p.Values = values
		}
		props.Add(p)
	}
	return props, nil
}

func (c *Codec) resolveDefinition(ctx context.Context, resolver TypeResolver, propertyID, typeID string, secondaryIDs []string) *model.PropertyDefinition {
	if resolver == nil {
		return nil
	}
	lookup := func(typeID string) *model.PropertyDefinition {
		if typeID == "" {
			return nil
		}
		t, err := resolver.TypeDefinition(ctx, typeID)
		if err != nil {
			c.logger().Warn("type definition fetch failed during succinct decode",
				"type", typeID, "error", err)
			return nil
		}
		return t.PropertyDefinition(propertyID)
	}

	if def := lookup(typeID); def != nil {
		return def
	}
	for _, sid := range secondaryIDs {
		if def := lookup(sid); def != nil {
			return def
		}
	}
	if def := lookup(string(cmis.BaseTypeDocument)); def != nil {
		return def
	}
	if def := lookup(string(cmis.BaseTypeFolder)); def != nil {
		return def
	}
	if typeID != "" {
		t, err := resolver.ReloadTypeDefinition(ctx, typeID)
		if err != nil {
			c.logger().Warn("type definition reload failed during succinct decode",
				"type", typeID, "error", err)
		} else if def := t.PropertyDefinition(propertyID); def != nil {
			return def
		}
	}
	return nil
}

// sniffKind guesses a property kind from the runtime value shape. Text
// kinds and integer-shaped decimals collapse; this is the accepted lossy
// corner of succinct decoding.
func sniffKind(raw any) cmis.PropertyType {
	if arr, ok := raw.([]any); ok {
		if len(arr) == 0 {
			return cmis.PropertyString
		}
		return sniffKind(arr[0])
	}
	switch t := raw.(type) {
	case bool:
		return cmis.PropertyBoolean
	case json.Number:
		if strings.ContainsAny(t.String(), ".eE") {
			return cmis.PropertyDecimal
		}
		return cmis.PropertyInteger
	default:
		return cmis.PropertyString
	}
}

// EncodeProperties renders a property bag. With a type definition supplied,
// cardinality comes from each property's definition and a SINGLE-cardinality
// property carrying more than one value is rejected; without one, a single
// value encodes bare and everything else as an array.
func (c *Codec) EncodeProperties(props *model.Properties, succinct bool, typeDef *model.TypeDefinition) (map[string]any, error) {
	out := make(map[string]any)
	if props == nil {
		return out, nil
	}
	for _, p := range props.List {
		card := cmis.CardinalityMulti
		if def := typeDef.PropertyDefinition(p.ID); def != nil {
			card = def.Cardinality
			if card == cmis.CardinalitySingle && len(p.Values) > 1 {
				return nil, fmt.Errorf("property %s: single cardinality with %d values", p.ID, len(p.Values))
			}
		} else if len(p.Values) == 1 {
			card = cmis.CardinalitySingle
		}

		key := p.ID
		if key == "" {
			key = p.QueryName
		}

		if succinct {
			if p.Values == nil {
				out[key] = nil
				continue
			}
			out[key] = c.encodeValueList(card, p.Values)
			continue
		}

		pm := make(map[string]any)
		putStr(pm, "id", p.ID)
		putStr(pm, "localName", p.LocalName)
		putStr(pm, "displayName", p.DisplayName)
		putStr(pm, "queryName", p.QueryName)
		pm["type"] = string(p.Kind)
		if p.Values != nil {
			pm["value"] = c.encodeValueList(card, p.Values)
		}
		writeExtensions(pm, p.Extensions)
		out[key] = pm
	}
	return out, nil
}
