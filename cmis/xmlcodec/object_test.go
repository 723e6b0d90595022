package xmlcodec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

const objectXML = `<cmis:object xmlns:cmis="http://docs.oasis-open.org/ns/cmis/core/200908/">
	<cmis:properties>
		<cmis:propertyId propertyDefinitionId="cmis:objectId"><cmis:value>obj-1</cmis:value></cmis:propertyId>
		<cmis:propertyString propertyDefinitionId="cmis:name" queryName="cmis:name"><cmis:value>a.txt</cmis:value></cmis:propertyString>
		<cmis:propertyInteger propertyDefinitionId="doc:pages"><cmis:value>12</cmis:value></cmis:propertyInteger>
		<cmis:propertyDateTime propertyDefinitionId="doc:modified"><cmis:value>2024-03-01T12:00:00Z</cmis:value></cmis:propertyDateTime>
		<cmis:propertyString propertyDefinitionId="doc:tags"><cmis:value>a</cmis:value><cmis:value>b</cmis:value></cmis:propertyString>
		<cmis:propertyBoolean propertyDefinitionId="doc:draft"></cmis:propertyBoolean>
	</cmis:properties>
	<cmis:allowableActions>
		<cmis:canGetProperties>true</cmis:canGetProperties>
		<cmis:canDeleteObject>false</cmis:canDeleteObject>
		<cmis:canTeleport>true</cmis:canTeleport>
	</cmis:allowableActions>
	<cmis:relationship>
		<cmis:properties>
			<cmis:propertyId propertyDefinitionId="cmis:objectId"><cmis:value>rel-1</cmis:value></cmis:propertyId>
		</cmis:properties>
	</cmis:relationship>
	<cmis:changeEventInfo>
		<cmis:changeType>updated</cmis:changeType>
		<cmis:changeTime>2024-03-01T12:00:00Z</cmis:changeTime>
	</cmis:changeEventInfo>
	<cmis:acl>
		<cmis:permission>
			<cmis:principal><cmis:principalId>alice</cmis:principalId></cmis:principal>
			<cmis:permission>cmis:read</cmis:permission>
			<cmis:direct>true</cmis:direct>
		</cmis:permission>
		<cmis:exact>true</cmis:exact>
	</cmis:acl>
	<cmis:exactACL>true</cmis:exactACL>
	<cmis:policyIds><cmis:id>pol-1</cmis:id></cmis:policyIds>
	<cmis:rendition>
		<cmis:streamId>thumb</cmis:streamId>
		<cmis:mimetype>image/png</cmis:mimetype>
		<cmis:length>1024</cmis:length>
		<cmis:kind>cmis:thumbnail</cmis:kind>
	</cmis:rendition>
	<vendor:trace xmlns:vendor="urn:vendor" id="t-1">abc</vendor:trace>
</cmis:object>`

func TestDecodeObject(t *testing.T) {
	c := &Codec{}
	obj, err := c.DecodeObject(strings.NewReader(objectXML))
	if err != nil {
		t.Fatal(err)
	}

	if obj.ID() != "obj-1" {
		t.Errorf("expected obj-1, got %q", obj.ID())
	}
	props := obj.Properties
	if got := props.TextOf("cmis:name"); got != "a.txt" {
		t.Errorf("expected a.txt, got %q", got)
	}
	if got := props.Get("doc:pages").FirstValue().Integer(); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
	if got := props.Get("doc:modified").FirstValue().Time().UTC().Year(); got != 2024 {
		t.Errorf("expected year 2024, got %d", got)
	}
	if got := len(props.Get("doc:tags").Values); got != 2 {
		t.Errorf("expected 2 tags, got %d", got)
	}
	// An element with no value children is the value-less state.
	if props.Get("doc:draft").Values != nil {
		t.Error("value-less property should have nil Values")
	}

	aa := obj.AllowableActions
	if !aa.Allows(cmis.CanGetProperties) {
		t.Error("expected canGetProperties allowed")
	}
	if aa.Allows(cmis.CanDeleteObject) {
		t.Error("expected canDeleteObject denied")
	}
	if _, present := aa.Actions["canTeleport"]; present {
		t.Error("unknown action must be dropped")
	}

	if len(obj.Relationships) != 1 || obj.Relationships[0].ID() != "rel-1" {
		t.Errorf("unexpected relationships: %+v", obj.Relationships)
	}

	info := obj.ChangeEventInfo
	if info == nil || info.ChangeType != cmis.ChangeUpdated || info.ChangeTime.UTC().Year() != 2024 {
		t.Errorf("unexpected change event: %+v", info)
	}

	if len(obj.Acl.Aces) != 1 {
		t.Fatalf("expected 1 ace, got %d", len(obj.Acl.Aces))
	}
	ace := obj.Acl.Aces[0]
	if ace.PrincipalID != "alice" || len(ace.Permissions) != 1 || ace.Permissions[0] != "cmis:read" || !ace.Direct {
		t.Errorf("unexpected ace: %+v", ace)
	}
	if obj.Acl.IsExact == nil || !*obj.Acl.IsExact {
		t.Error("expected exact acl")
	}
	if obj.ExactACL == nil || !*obj.ExactACL {
		t.Error("expected exactACL true")
	}

	if obj.PolicyIDs == nil || len(obj.PolicyIDs.IDs) != 1 || obj.PolicyIDs.IDs[0] != "pol-1" {
		t.Errorf("unexpected policy ids: %+v", obj.PolicyIDs)
	}
	if len(obj.Renditions) != 1 {
		t.Fatalf("expected 1 rendition, got %d", len(obj.Renditions))
	}
	r := obj.Renditions[0]
	if r.StreamID != "thumb" || r.MimeType != "image/png" || r.Length == nil || *r.Length != 1024 {
		t.Errorf("unexpected rendition: %+v", r)
	}

	if len(obj.Extensions) != 1 {
		t.Fatalf("expected 1 extension, got %v", obj.Extensions)
	}
	ext := obj.Extensions[0]
	if ext.Name != "trace" || ext.Namespace != "urn:vendor" || ext.Value != "abc" {
		t.Errorf("unexpected extension: %+v", ext)
	}
	if len(ext.Attributes) != 1 || ext.Attributes[0].Name != "id" || ext.Attributes[0].Value != "t-1" {
		t.Errorf("extension attribute lost: %+v", ext.Attributes)
	}
}

func TestDecodePropertiesStandalone(t *testing.T) {
	c := &Codec{}
	props, err := c.DecodeProperties(strings.NewReader(
		`<cmis:properties xmlns:cmis="` + NamespaceCore + `">
			<cmis:propertyDecimal propertyDefinitionId="doc:price"><cmis:value>0.01</cmis:value></cmis:propertyDecimal>
		</cmis:properties>`))
	if err != nil {
		t.Fatal(err)
	}
	p := props.Get("doc:price")
	if p == nil || p.Kind != cmis.PropertyDecimal {
		t.Fatalf("unexpected property: %+v", p)
	}
	if p.FirstValue().Decimal().String() != "0.01" {
		t.Errorf("expected 0.01, got %s", p.FirstValue().Decimal().String())
	}
}

func TestDecodePropertiesRejects(t *testing.T) {
	c := &Codec{}
	// Neither propertyDefinitionId nor queryName identifies the property.
	if _, err := c.DecodeProperties(strings.NewReader(
		`<cmis:properties xmlns:cmis="` + NamespaceCore + `">
			<cmis:propertyString><cmis:value>x</cmis:value></cmis:propertyString>
		</cmis:properties>`)); err == nil {
		t.Error("expected error for unidentified property")
	}
	// A malformed typed literal fails the property, not just the value.
	if _, err := c.DecodeProperties(strings.NewReader(
		`<cmis:properties xmlns:cmis="` + NamespaceCore + `">
			<cmis:propertyInteger propertyDefinitionId="doc:pages"><cmis:value>twelve</cmis:value></cmis:propertyInteger>
		</cmis:properties>`)); err == nil {
		t.Error("expected error for malformed integer literal")
	}
}

func TestDecodePropertyQueryNameOnly(t *testing.T) {
	// Query results may identify a column by queryName alone.
	c := &Codec{}
	props, err := c.DecodeProperties(strings.NewReader(
		`<cmis:properties xmlns:cmis="` + NamespaceCore + `">
			<cmis:propertyString queryName="d.cmis:name"><cmis:value>a.txt</cmis:value></cmis:propertyString>
		</cmis:properties>`))
	if err != nil {
		t.Fatal(err)
	}
	if props.List[0].QueryName != "d.cmis:name" {
		t.Errorf("query name lost: %+v", props.List[0])
	}
}

func TestDecodeAllowableActionsStandalone(t *testing.T) {
	c := &Codec{}
	aa, err := c.DecodeAllowableActions(strings.NewReader(
		`<cmis:allowableActions xmlns:cmis="` + NamespaceCore + `">
			<cmis:canGetChildren>true</cmis:canGetChildren>
		</cmis:allowableActions>`))
	if err != nil {
		t.Fatal(err)
	}
	if !aa.Allows(cmis.CanGetChildren) {
		t.Error("expected canGetChildren allowed")
	}
}

func TestDecodeACLStandalone(t *testing.T) {
	c := &Codec{}
	acl, err := c.DecodeACL(strings.NewReader(
		`<cmis:acl xmlns:cmis="` + NamespaceCore + `">
			<cmis:permission>
				<cmis:principal><cmis:principalId>bob</cmis:principalId></cmis:principal>
				<cmis:permission>cmis:write</cmis:permission>
				<cmis:direct>false</cmis:direct>
			</cmis:permission>
		</cmis:acl>`))
	if err != nil {
		t.Fatal(err)
	}
	if len(acl.Aces) != 1 || acl.Aces[0].PrincipalID != "bob" || acl.Aces[0].Direct {
		t.Errorf("unexpected acl: %+v", acl)
	}
	if acl.IsExact != nil {
		t.Error("absent exact flag should stay nil")
	}
}

func TestEncodeObjectRoundTrip(t *testing.T) {
	c := &Codec{}
	obj, err := c.DecodeObject(strings.NewReader(objectXML))
	if err != nil {
		t.Fatal(err)
	}
	data, err := c.EncodeObject(obj)
	if err != nil {
		t.Fatal(err)
	}
	again, err := c.DecodeObject(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	if again.ID() != "obj-1" {
		t.Errorf("object id lost: %q", again.ID())
	}
	if got := len(again.Properties.Get("doc:tags").Values); got != 2 {
		t.Errorf("multi-value property lost: %d values", got)
	}
	if again.Properties.Get("doc:draft").Values != nil {
		t.Error("value-less property gained values across round trip")
	}
	if !again.AllowableActions.Allows(cmis.CanGetProperties) || again.AllowableActions.Allows(cmis.CanDeleteObject) {
		t.Error("allowable actions lost")
	}
	if len(again.Relationships) != 1 || again.Relationships[0].ID() != "rel-1" {
		t.Error("nested relationship lost")
	}
	if again.ChangeEventInfo == nil || again.ChangeEventInfo.ChangeType != cmis.ChangeUpdated {
		t.Error("change event lost")
	}
	if len(again.Acl.Aces) != 1 || again.Acl.Aces[0].PrincipalID != "alice" {
		t.Error("acl lost")
	}
	if again.ExactACL == nil || !*again.ExactACL {
		t.Error("exactACL lost")
	}
	if again.PolicyIDs == nil || len(again.PolicyIDs.IDs) != 1 {
		t.Error("policy ids lost")
	}
	if len(again.Renditions) != 1 || again.Renditions[0].StreamID != "thumb" {
		t.Error("rendition lost")
	}
	if len(again.Extensions) != 1 {
		t.Fatalf("extension lost: %v", again.Extensions)
	}
	ext := again.Extensions[0]
	if ext.Name != "trace" || ext.Value != "abc" || len(ext.Attributes) != 1 {
		t.Errorf("extension content lost: %+v", ext)
	}
}

func TestEncodePropertiesUnknownKind(t *testing.T) {
	c := &Codec{}
	props := &model.Properties{}
	props.Add(&model.Property{ID: "doc:x", Kind: cmis.PropertyType("widget")})
	if _, err := c.EncodeProperties(props); err == nil {
		t.Error("expected error for unknown property kind")
	}
}

func TestEncodeAllowableActionsVersionGuard(t *testing.T) {
	obj := &model.ObjectData{
		AllowableActions: &model.AllowableActions{Actions: map[cmis.Action]bool{
			cmis.CanCreateItem:   true,
			cmis.CanCreateFolder: true,
		}},
	}

	v10 := &Codec{Version: cmis.Version10}
	data, err := v10.EncodeObject(obj)
	if err != nil {
		t.Fatal(err)
	}
	out, err := v10.DecodeObject(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, present := out.AllowableActions.Actions[cmis.CanCreateItem]; present {
		t.Error("1.0 encoding must drop canCreateItem")
	}
	if !out.AllowableActions.Allows(cmis.CanCreateFolder) {
		t.Error("other actions must survive the 1.0 guard")
	}

	v11 := &Codec{}
	data, err = v11.EncodeObject(obj)
	if err != nil {
		t.Fatal(err)
	}
	out, err = v11.DecodeObject(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if !out.AllowableActions.Allows(cmis.CanCreateItem) {
		t.Error("1.1 encoding must keep canCreateItem")
	}
}
