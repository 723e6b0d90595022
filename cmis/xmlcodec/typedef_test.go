package xmlcodec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

const docTypeXML = `<cmis:type xmlns:cmis="http://docs.oasis-open.org/ns/cmis/core/200908/"
		xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
		xsi:type="cmis:cmisTypeDocumentDefinitionType">
	<cmis:id>doc:report</cmis:id>
	<cmis:displayName>Report</cmis:displayName>
	<cmis:baseId>cmis:document</cmis:baseId>
	<cmis:parentId>cmis:document</cmis:parentId>
	<cmis:creatable>true</cmis:creatable>
	<cmis:typeMutability>
		<cmis:create>true</cmis:create>
		<cmis:update>false</cmis:update>
	</cmis:typeMutability>
	<cmis:propertyIntegerDefinition>
		<cmis:id>doc:pages</cmis:id>
		<cmis:propertyType>integer</cmis:propertyType>
		<cmis:cardinality>single</cmis:cardinality>
		<cmis:updatability>readwrite</cmis:updatability>
		<cmis:defaultValue><cmis:value>1</cmis:value></cmis:defaultValue>
		<cmis:minValue>1</cmis:minValue>
		<cmis:maxValue>10000</cmis:maxValue>
	</cmis:propertyIntegerDefinition>
	<cmis:propertyStringDefinition>
		<cmis:id>doc:color</cmis:id>
		<cmis:cardinality>single</cmis:cardinality>
		<cmis:maxLength>32</cmis:maxLength>
		<cmis:openChoice>false</cmis:openChoice>
		<cmis:choice displayName="warm">
			<cmis:choice displayName="red"><cmis:value>red</cmis:value></cmis:choice>
		</cmis:choice>
		<cmis:choice displayName="cold"><cmis:value>blue</cmis:value></cmis:choice>
	</cmis:propertyStringDefinition>
	<cmis:versionable>true</cmis:versionable>
	<cmis:contentStreamAllowed>required</cmis:contentStreamAllowed>
	<vendor:hint xmlns:vendor="urn:vendor">fast</vendor:hint>
</cmis:type>`

func TestDecodeTypeDefinitionDocument(t *testing.T) {
	c := &Codec{}
	def, err := c.DecodeTypeDefinition(strings.NewReader(docTypeXML))
	if err != nil {
		t.Fatal(err)
	}

	if def.ID != "doc:report" || def.BaseID != cmis.BaseTypeDocument {
		t.Errorf("identity fields wrong: %+v", def)
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

	pages := def.PropertyDefinition("doc:pages")
	if pages == nil {
		t.Fatal("expected doc:pages definition")
	}
	if pages.Kind != cmis.PropertyInteger {
		t.Errorf("expected kind from element name, got %q", pages.Kind)
	}
	if pages.Cardinality != cmis.CardinalitySingle || pages.Updatability != cmis.UpdatabilityReadWrite {
		t.Errorf("enum attributes wrong: %+v", pages)
	}
	if pages.MinInteger == nil || *pages.MinInteger != 1 || pages.MaxInteger == nil || *pages.MaxInteger != 10000 {
		t.Error("expected integer facet bounds")
	}
	if len(pages.DefaultValue) != 1 || pages.DefaultValue[0].Integer() != 1 {
		t.Errorf("expected default value 1, got %v", pages.DefaultValue)
	}

	color := def.PropertyDefinition("doc:color")
	if color == nil {
		t.Fatal("expected doc:color definition")
	}
	if color.MaxLength == nil || *color.MaxLength != 32 {
		t.Error("expected string facet maxLength")
	}
	if color.OpenChoice == nil || *color.OpenChoice {
		t.Error("expected openChoice false")
	}
	if len(color.Choices) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(color.Choices))
	}
	warm := color.Choices[0]
	if warm.DisplayName != "warm" || len(warm.Choices) != 1 {
		t.Errorf("expected nested warm choice, got %+v", warm)
	}
	if warm.Choices[0].Values[0].Text() != "red" {
		t.Errorf("expected red, got %q", warm.Choices[0].Values[0].Text())
	}

	if len(def.Extensions) != 1 || def.Extensions[0].Name != "hint" || def.Extensions[0].Value != "fast" {
		t.Errorf("expected vendor hint extension, got %v", def.Extensions)
	}
}

func TestDecodeTypeDefinitionBaseIDFallback(t *testing.T) {
	// Without xsi:type the baseId element decides the variant.
	c := &Codec{}
	def, err := c.DecodeTypeDefinition(strings.NewReader(
		`<cmis:type xmlns:cmis="` + NamespaceCore + `"><cmis:id>f:x</cmis:id><cmis:baseId>cmis:folder</cmis:baseId></cmis:type>`))
	if err != nil {
		t.Fatal(err)
	}
	if def.BaseID != cmis.BaseTypeFolder {
		t.Errorf("expected folder base, got %q", def.BaseID)
	}
}

func TestDecodeTypeDefinitionRelationship(t *testing.T) {
	c := &Codec{}
	def, err := c.DecodeTypeDefinition(strings.NewReader(
		`<cmis:type xmlns:cmis="` + NamespaceCore + `">
			<cmis:id>rel:refers</cmis:id>
			<cmis:baseId>cmis:relationship</cmis:baseId>
			<cmis:allowedSourceTypes>doc:report</cmis:allowedSourceTypes>
			<cmis:allowedTargetTypes>doc:report</cmis:allowedTargetTypes>
			<cmis:allowedTargetTypes>cmis:folder</cmis:allowedTargetTypes>
		</cmis:type>`))
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

func TestDecodeTypeDefinitionRejects(t *testing.T) {
	c := &Codec{}
	core := `xmlns:cmis="` + NamespaceCore + `"`
	xsi := `xmlns:xsi="` + NamespaceXSI + `"`

	if _, err := c.DecodeTypeDefinition(strings.NewReader(
		`<cmis:type ` + core + `><cmis:id>doc:x</cmis:id></cmis:type>`)); err == nil {
		t.Error("expected error for missing base type id")
	}
	if _, err := c.DecodeTypeDefinition(strings.NewReader(
		`<cmis:type ` + core + `><cmis:id>doc:x</cmis:id><cmis:baseId>cmis:widget</cmis:baseId></cmis:type>`)); err == nil {
		t.Error("expected error for unknown baseId")
	}
	if _, err := c.DecodeTypeDefinition(strings.NewReader(
		`<cmis:type ` + core + ` ` + xsi + ` xsi:type="cmis:cmisTypeWidgetDefinitionType"><cmis:id>doc:x</cmis:id></cmis:type>`)); err == nil {
		t.Error("expected error for unknown xsi:type")
	}
	if _, err := c.DecodeTypeDefinition(strings.NewReader(
		`<cmis:type ` + core + `>
			<cmis:id>doc:x</cmis:id><cmis:baseId>cmis:document</cmis:baseId>
			<cmis:propertyStringDefinition><cmis:cardinality>single</cmis:cardinality></cmis:propertyStringDefinition>
		</cmis:type>`)); err == nil {
		t.Error("expected error for id-less property definition")
	}
	// propertyType contradicting the element-name discriminator is a broken producer.
	if _, err := c.DecodeTypeDefinition(strings.NewReader(
		`<cmis:type ` + core + `>
			<cmis:id>doc:x</cmis:id><cmis:baseId>cmis:document</cmis:baseId>
			<cmis:propertyStringDefinition>
				<cmis:id>doc:p</cmis:id><cmis:propertyType>integer</cmis:propertyType>
			</cmis:propertyStringDefinition>
		</cmis:type>`)); err == nil {
		t.Error("expected error for contradictory propertyType")
	}
}

func TestDecodePropertyDefinitionEmptyDefault(t *testing.T) {
	// A present defaultValue with no value children is the explicit empty set.
	c := &Codec{}
	def, err := c.DecodeTypeDefinition(strings.NewReader(
		`<cmis:type xmlns:cmis="` + NamespaceCore + `">
			<cmis:id>doc:x</cmis:id><cmis:baseId>cmis:document</cmis:baseId>
			<cmis:propertyStringDefinition>
				<cmis:id>doc:note</cmis:id>
				<cmis:defaultValue></cmis:defaultValue>
			</cmis:propertyStringDefinition>
		</cmis:type>`))
	if err != nil {
		t.Fatal(err)
	}
	pd := def.PropertyDefinition("doc:note")
	if pd.DefaultValue == nil || len(pd.DefaultValue) != 0 {
		t.Errorf("expected empty non-nil default, got %v", pd.DefaultValue)
	}
}

func TestTypeDefinitionRoundTrip(t *testing.T) {
	c := &Codec{}
	def, err := c.DecodeTypeDefinition(strings.NewReader(docTypeXML))
	if err != nil {
		t.Fatal(err)
	}
	data, err := c.EncodeTypeDefinition(def)
	if err != nil {
		t.Fatal(err)
	}
	again, err := c.DecodeTypeDefinition(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	if again.ID != def.ID || again.BaseID != def.BaseID || again.ParentID != def.ParentID {
		t.Error("identity fields changed across round trip")
	}
	if again.Document == nil || again.Document.ContentStreamAllowed != cmis.ContentStreamRequired {
		t.Error("document facet lost across round trip")
	}
	pages := again.PropertyDefinition("doc:pages")
	if pages == nil || pages.MinInteger == nil || *pages.MinInteger != 1 {
		t.Error("integer facet lost across round trip")
	}
	if len(pages.DefaultValue) != 1 || pages.DefaultValue[0].Integer() != 1 {
		t.Error("default value lost across round trip")
	}
	color := again.PropertyDefinition("doc:color")
	if color == nil || len(color.Choices) != 2 || color.Choices[0].DisplayName != "warm" {
		t.Error("choices lost across round trip")
	}
	if len(color.Choices[0].Choices) != 1 || color.Choices[0].Choices[0].Values[0].Text() != "red" {
		t.Error("nested choice lost across round trip")
	}
	if len(again.Extensions) != 1 || again.Extensions[0].Name != "hint" || again.Extensions[0].Value != "fast" {
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

func TestEncodeTypeDefinitionCarriesXSIType(t *testing.T) {
	c := &Codec{}
	data, err := c.EncodeTypeDefinition(&model.TypeDefinition{ID: "p:x", BaseID: cmis.BaseTypePolicy})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `xsi:type="cmis:cmisTypePolicyDefinitionType"`) {
		t.Errorf("expected xsi:type discriminator, got %s", data)
	}
}

func TestDecodeTypeChildren(t *testing.T) {
	c := &Codec{}
	list, err := c.DecodeTypeChildren(strings.NewReader(
		`<cmis:typeChildren xmlns:cmis="` + NamespaceCore + `">
			<cmis:types><cmis:id>cmis:document</cmis:id><cmis:baseId>cmis:document</cmis:baseId></cmis:types>
			<cmis:types><cmis:id>cmis:folder</cmis:id><cmis:baseId>cmis:folder</cmis:baseId></cmis:types>
			<cmis:hasMoreItems>false</cmis:hasMoreItems>
			<cmis:numItems>2</cmis:numItems>
		</cmis:typeChildren>`))
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
	tree, err := c.DecodeTypeDescendants(strings.NewReader(
		`<cmis:typeDescendants xmlns:cmis="` + NamespaceCore + `">
			<cmis:container>
				<cmis:type><cmis:id>cmis:document</cmis:id><cmis:baseId>cmis:document</cmis:baseId></cmis:type>
				<cmis:container>
					<cmis:type><cmis:id>doc:report</cmis:id><cmis:baseId>cmis:document</cmis:baseId></cmis:type>
				</cmis:container>
			</cmis:container>
		</cmis:typeDescendants>`))
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
