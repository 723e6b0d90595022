package model

import (
	"github.com/content-interop/cmis-go/cmis"
)

// Property is one property value list keyed by property id. In query result
// contexts the wire key is the query name (alias) instead of the id, so both
// are carried.
type Property struct {
	ID          string
	LocalName   string
	DisplayName string
	QueryName   string
	Kind        cmis.PropertyType

	// Values is nil when the property is present but not set; an empty
	// non-nil slice is a set-but-empty list. The distinction is preserved
	// across both wire encodings.
	Values []Value

	Extensions []*ExtensionNode
}

// FirstValue returns the first value, or a zero Value when unset.
func (p *Property) FirstValue() Value {
	if p == nil || len(p.Values) == 0 {
		return Value{}
	}
	return p.Values[0]
}

// Properties is an ordered property bag.
type Properties struct {
	List       []*Property
	Extensions []*ExtensionNode
}

// Get returns the property with the given id, or nil.
func (ps *Properties) Get(id string) *Property {
	if ps == nil {
		return nil
	}
	for _, p := range ps.List {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Add appends a property, keeping insertion order.
func (ps *Properties) Add(p *Property) {
	ps.List = append(ps.List, p)
}

// TextOf returns the first text payload of the property with the given id.
func (ps *Properties) TextOf(id string) string {
	return ps.Get(id).FirstValue().Text()
}
