package jsoncodec

import (
	"encoding/json"
	"testing"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

func TestDecodeTypeDefinitionDocument(t *testing.T) {
	c := &Codec{}
	def, err := c.DecodeTypeDefinition([]byte(`{
		"id": "doc:report",
		"baseId": "cmis:document",
		"parentId": "cmis:document",
		"displayName": "Report",
		"creatable": true,
		"versionable": true,
		"contentStreamAllowed": "required",
		"typeMutability": {"create": true, "update": false},
		"propertyDefinitions": {
			"doc:pages": {
				"id": "doc:pages",
				"propertyType": "integer",
				"cardinality": "single",
				"updatability": "readwrite",
				"minValue": 1,
				"maxValue": 10000,
				"defaultValue": 1
			}
		},
		"vendor:hint": "fast"
	}`))
	if err != nil {
		t.Fatal(err)
	}

	if def.BaseID != cmis.BaseTypeDocument {
		t.Errorf("expected document base, got %q", def.BaseID)
	}
	if def.Document == nil {
		t.Fatal("expected document facet")
	}
	if def.Document.Versionable == nil || !*def.Document.Versionable {
		t.Error("expected versionable true")
	}
	if def.Document.ContentStreamAllowed != cmis.ContentStreamRequired {
		t.Errorf("expected required, got %q", def.Document.ContentStreamAllowed)
	}
	if def.Relationship != nil {
		t.Error("document type must not carry a relationship facet")
	}
	if def.TypeMutability == nil || def.TypeMutability.Create == nil || !*def.TypeMutability.Create {
		t.Error("expected typeMutability.create true")
	}
	if def.TypeMutability.Delete != nil {
		t.Error("absent mutability flag should stay nil")
	}

	pd := def.PropertyDefinition("doc:pages")
	if pd == nil {
		t.Fatal("expected doc:pages definition")
	}
	if pd.MinInteger == nil || *pd.MinInteger != 1 || pd.MaxInteger == nil || *pd.MaxInteger != 10000 {
		t.Error("expected integer facet bounds")
	}
	if len(pd.DefaultValue) != 1 || pd.DefaultValue[0].Integer() != 1 {
		t.Errorf("expected default value 1, got %v", pd.DefaultValue)
	}

	if len(def.Extensions) != 1 || def.Extensions[0].Name != "vendor:hint" {
		t.Errorf("expected vendor:hint extension, got %v", def.Extensions)
	}
}

func TestDecodeTypeDefinitionRelationship(t *testing.T) {
	c := &Codec{}
	def, err := c.DecodeTypeDefinition([]byte(`{
		"id": "rel:refers",
		"baseId": "cmis:relationship",
		"allowedSourceTypes": ["doc:report"],
		"allowedTargetTypes": ["doc:report", "cmis:folder"]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if def.Relationship == nil {
		t.Fatal("expected relationship facet")
	}
	if len(def.Relationship.AllowedTargetTypeIDs) != 2 {
		t.Errorf("expected 2 target types, got %v", def.Relationship.AllowedTargetTypeIDs)
	}
	if def.Document != nil {
		t.Error("relationship type must not carry a document facet")
	}
}

func TestDecodeTypeDefinitionBaseIDRequired(t *testing.T) {
	c := &Codec{}
	if _, err := c.DecodeTypeDefinition([]byte(`{"id": "doc:x"}`)); err == nil {
		t.Error("expected error for missing baseId")
	}
	if _, err := c.DecodeTypeDefinition([]byte(`{"id": "doc:x", "baseId": "cmis:widget"}`)); err == nil {
		t.Error("expected error for unknown baseId")
	}
}

func TestDecodePropertyDefinitionDecimalFacet(t *testing.T) {
	c := &Codec{}
	def, err := c.DecodeTypeDefinition([]byte(`{
		"id": "doc:x",
		"baseId": "cmis:document",
		"propertyDefinitions": {
			"doc:price": {
				"id": "doc:price",
				"propertyType": "decimal",
				"cardinality": "single",
				"minValue": 0.01,
				"precision": 64
			}
		}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	pd := def.PropertyDefinition("doc:price")
	if pd.MinDecimal == nil || pd.MinDecimal.String() != "0.01" {
		t.Errorf("expected min 0.01, got %v", pd.MinDecimal)
	}
	if pd.Precision == nil || *pd.Precision != cmis.Precision64 {
		t.Errorf("expected precision 64, got %v", pd.Precision)
	}
}

func TestDecodePropertyDefinitionChoices(t *testing.T) {
	c := &Codec{}
	def, err := c.DecodeTypeDefinition([]byte(`{
		"id": "doc:x",
		"baseId": "cmis:document",
		"propertyDefinitions": {
			"doc:color": {
				"id": "doc:color",
				"propertyType": "string",
				"cardinality": "single",
				"openChoice": false,
				"choice": [
					{"displayName": "warm", "choice": [
						{"displayName": "red", "value": "red"}
					]},
					{"displayName": "cold", "value": "blue"}
				]
			}
		}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	pd := def.PropertyDefinition("doc:color")
	if len(pd.Choices) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(pd.Choices))
	}
	warm := pd.Choices[0]
	if warm.DisplayName != "warm" || len(warm.Choices) != 1 {
		t.Errorf("expected nested warm choice, got %+v", warm)
	}
	if warm.Choices[0].Values[0].Text() != "red" {
		t.Errorf("expected red, got %q", warm.Choices[0].Values[0].Text())
	}
}

func TestTypeDefinitionRoundTrip(t *testing.T) {
	c := &Codec{}
	src := []byte(`{
		"id": "doc:report",
		"baseId": "cmis:document",
		"parentId": "cmis:document",
		"displayName": "Report",
		"creatable": true,
		"fileable": true,
		"versionable": false,
		"contentStreamAllowed": "allowed",
		"propertyDefinitions": {
			"doc:title": {
				"id": "doc:title",
				"propertyType": "string",
				"cardinality": "single",
				"updatability": "readwrite",
				"maxLength": 255,
				"defaultValue": "untitled"
			}
		},
		"vendor:hint": "fast"
	}`)

	def, err := c.DecodeTypeDefinition(src)
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := c.EncodeTypeDefinition(def)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		t.Fatal(err)
	}
	again, err := c.DecodeTypeDefinition(data)
	if err != nil {
		t.Fatal(err)
	}

	if again.ID != def.ID || again.BaseID != def.BaseID || again.ParentID != def.ParentID {
		t.Error("identity fields changed across round trip")
	}
	pd := again.PropertyDefinition("doc:title")
	if pd == nil || pd.MaxLength == nil || *pd.MaxLength != 255 {
		t.Error("string facet lost across round trip")
	}
	if len(pd.DefaultValue) != 1 || pd.DefaultValue[0].Text() != "untitled" {
		t.Error("default value lost across round trip")
	}
	if len(again.Extensions) != 1 || again.Extensions[0].Name != "vendor:hint" || again.Extensions[0].Value != "fast" {
		t.Errorf("extension lost across round trip: %v", again.Extensions)
	}
}

func TestEncodeTypeDefinitionVersionGuard(t *testing.T) {
	item := &model.TypeDefinition{ID: "it:x", BaseID: cmis.BaseTypeItem}

	v11 := &Codec{Version: cmis.Version11}
	if _, err := v11.EncodeTypeDefinition(item); err != nil {
		t.Errorf("1.1 should accept item types: %v", err)
	}

	v10 := &Codec{Version: cmis.Version10}
	if _, err := v10.EncodeTypeDefinition(item); err == nil {
		t.Error("1.0 must reject item types")
	}
	secondary := &model.TypeDefinition{ID: "sec:x", BaseID: cmis.BaseTypeSecondary}
	if _, err := v10.EncodeTypeDefinition(secondary); err == nil {
		t.Error("1.0 must reject secondary types")
	}
}

func TestDecodeTypeChildren(t *testing.T) {
	c := &Codec{}
	list, err := c.DecodeTypeChildren([]byte(`{
		"types": [
			{"id": "cmis:document", "baseId": "cmis:document"},
			{"id": "cmis:folder", "baseId": "cmis:folder"}
		],
		"hasMoreItems": false,
		"numItems": 2
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Types) != 2 {
		t.Fatalf("expected 2 types, got %d", len(list.Types))
	}
	if list.NumItems == nil || *list.NumItems != 2 {
		t.Error("expected numItems 2")
	}
	if list.HasMoreItems == nil || *list.HasMoreItems {
		t.Error("expected hasMoreItems false")
	}
}

func TestDecodeTypeDescendants(t *testing.T) {
	c := &Codec{}
	tree, err := c.DecodeTypeDescendants([]byte(`[
		{
			"type": {"id": "cmis:document", "baseId": "cmis:document"},
			"children": [
				{"type": {"id": "doc:report", "baseId": "cmis:document"}}
			]
		}
	]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != 1 || tree[0].Type.ID != "cmis:document" {
		t.Fatal("expected one root container")
	}
	if len(tree[0].Children) != 1 || tree[0].Children[0].Type.ID != "doc:report" {
		t.Error("expected nested child container")
	}
}
