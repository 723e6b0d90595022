package model

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/content-interop/cmis-go/cmis"
)

// Choice is one node of a property definition's recursive choice list.
type Choice struct {
	DisplayName string
	Values      []Value
	Choices     []*Choice
}

// PropertyDefinition describes one property of a type. Kind discriminates
// the seven data kinds; the facet fields below the common block only apply
// to the kind named in their comment and stay nil otherwise.
type PropertyDefinition struct {
	ID             string
	LocalName      string
	LocalNamespace string
	DisplayName    string
	QueryName      string
	Description    string

	Kind         cmis.PropertyType
	Cardinality  cmis.Cardinality
	Updatability cmis.Updatability

	Inherited  *bool
	Required   *bool
	Queryable  *bool
	Orderable  *bool
	OpenChoice *bool

	// DefaultValue is nil when the definition has no default. SINGLE
	// cardinality allows at most one entry.
	DefaultValue []Value
	Choices      []*Choice

	// String facet.
	MaxLength *int64

	// Integer facet.
	MinInteger *int64
	MaxInteger *int64

	// Decimal facet.
	MinDecimal *decimal.Decimal
	MaxDecimal *decimal.Decimal
	Precision  *cmis.DecimalPrecision

	// DateTime facet.
	Resolution cmis.DateTimeResolution

	Extensions []*ExtensionNode
}

// Validate checks the typing invariants: default and choice values must
// match Kind, and SINGLE cardinality admits at most one default value and
// one value per choice entry.
func (d *PropertyDefinition) Validate() error {
	if _, ok := cmis.ParsePropertyType(string(d.Kind)); !ok {
		return fmt.Errorf("property %s: invalid property type %q", d.ID, d.Kind)
	}
	if d.Cardinality == cmis.CardinalitySingle && len(d.DefaultValue) > 1 {
		return fmt.Errorf("property %s: single cardinality with %d default values", d.ID, len(d.DefaultValue))
	}
	for _, v := range d.DefaultValue {
		if v.Kind() != d.Kind {
			return fmt.Errorf("property %s: default value of kind %s does not match %s", d.ID, v.Kind(), d.Kind)
		}
	}
	return validateChoices(d, d.Choices)
}

func validateChoices(d *PropertyDefinition, choices []*Choice) error {
	for _, c := range choices {
		if d.Cardinality == cmis.CardinalitySingle && len(c.Values) > 1 {
			return fmt.Errorf("property %s: single cardinality choice %q with %d values", d.ID, c.DisplayName, len(c.Values))
		}
		for _, v := range c.Values {
			if v.Kind() != d.Kind {
				return fmt.Errorf("property %s: choice %q value of kind %s does not match %s", d.ID, c.DisplayName, v.Kind(), d.Kind)
			}
		}
		if err := validateChoices(d, c.Choices); err != nil {
			return err
		}
	}
	return nil
}
