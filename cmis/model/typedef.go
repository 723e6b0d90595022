package model

import (
	"fmt"

	"github.com/content-interop/cmis-go/cmis"
)

// TypeMutability states which type-definition operations the repository
// permits for this type.
type TypeMutability struct {
	Create *bool
	Update *bool
	Delete *bool
}

// DocumentTypeFacet carries the attributes only document types have.
type DocumentTypeFacet struct {
	Versionable          *bool
	ContentStreamAllowed cmis.ContentStreamAllowed
}

// RelationshipTypeFacet carries the attributes only relationship types have.
// Empty id lists mean "any type allowed".
type RelationshipTypeFacet struct {
	AllowedSourceTypeIDs []string
	AllowedTargetTypeIDs []string
}

// TypeDefinition describes one object type. BaseID discriminates the closed
// variant set; the Document and Relationship facets are non-nil exactly for
// their variant. Decoders fail on a missing or unknown base id rather than
// guessing from shape.
type TypeDefinition struct {
	ID             string
	LocalName      string
	LocalNamespace string
	DisplayName    string
	QueryName      string
	Description    string

	BaseID   cmis.BaseTypeID
	ParentID string

	Creatable                *bool
	Fileable                 *bool
	Queryable                *bool
	FulltextIndexed          *bool
	IncludedInSupertypeQuery *bool
	ControllablePolicy       *bool
	ControllableACL          *bool

	TypeMutability *TypeMutability

	// PropertyDefinitions keeps wire order; look up by id via
	// PropertyDefinition.
	PropertyDefinitions []*PropertyDefinition

	Document     *DocumentTypeFacet
	Relationship *RelationshipTypeFacet

	Extensions []*ExtensionNode
}

// PropertyDefinition returns the definition with the given property id, or
// nil.
func (t *TypeDefinition) PropertyDefinition(id string) *PropertyDefinition {
	if t == nil {
		return nil
	}
	for _, d := range t.PropertyDefinitions {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Validate checks the variant invariants: a known base id, and facets
// matching the variant.
func (t *TypeDefinition) Validate() error {
	if _, ok := cmis.ParseBaseTypeID(string(t.BaseID)); !ok {
		return fmt.Errorf("type %s: invalid base type id %q", t.ID, t.BaseID)
	}
	if t.Document != nil && t.BaseID != cmis.BaseTypeDocument {
		return fmt.Errorf("type %s: document facet on base type %s", t.ID, t.BaseID)
	}
	if t.Relationship != nil && t.BaseID != cmis.BaseTypeRelationship {
		return fmt.Errorf("type %s: relationship facet on base type %s", t.ID, t.BaseID)
	}
	return nil
}

// TypeDefinitionList is one page of type children.
type TypeDefinitionList struct {
	Types        []*TypeDefinition
	HasMoreItems *bool
	NumItems     *int64
}

// TypeDefinitionContainer is one node of a type-descendants tree.
type TypeDefinitionContainer struct {
	Type     *TypeDefinition
	Children []*TypeDefinitionContainer
}
