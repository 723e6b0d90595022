package xmlcodec

import (
	"fmt"
	"io"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// enumText reads the named child element and parses it as an enum,
// returning the zero value with a warning when the literal is not
// recognized.
func enumText[T ~string](c *Codec, n *node, name string, parse func(string) (T, bool)) T {
	raw := n.childText(name)
	if raw == "" {
		var zero T
		return zero
	}
	v, ok := parse(raw)
	if !ok {
		c.logger().Warn("unrecognized enum literal", "element", name, "value", raw)
	}
	return v
}

// DecodeRepositoryInfo decodes one cmis:repositoryInfo document.
func (c *Codec) DecodeRepositoryInfo(r io.Reader) (*model.RepositoryInfo, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	if root.name != "repositoryInfo" {
		return nil, fmt.Errorf("expected repositoryInfo element, got %s", root.name)
	}
	return c.decodeRepositoryInfo(root)
}

func (c *Codec) decodeRepositoryInfo(n *node) (*model.RepositoryInfo, error) {
	info := &model.RepositoryInfo{
		ID:                   n.childText("repositoryId"),
		Name:                 n.childText("repositoryName"),
		Description:          n.childText("repositoryDescription"),
		VendorName:           n.childText("vendorName"),
		ProductName:          n.childText("productName"),
		ProductVersion:       n.childText("productVersion"),
		RootFolderID:         n.childText("rootFolderId"),
		LatestChangeLogToken: n.childText("latestChangeLogToken"),
		ThinClientURI:        n.childText("thinClientURI"),
		ChangesIncomplete:    n.childBool("changesIncomplete"),
		PrincipalIDAnonymous: n.childText("principalAnonymous"),
		PrincipalIDAnyone:    n.childText("principalAnyone"),
	}
	if info.ID == "" {
		return nil, fmt.Errorf("repository info without repository id")
	}
	info.CMISVersionSupported = cmis.ParseVersion(n.childText("cmisVersionSupported"))

	for _, raw := range n.childValues("changesOnType") {
		bt, ok := cmis.ParseBaseTypeID(raw)
		if !ok {
			c.logger().Warn("unrecognized base type in changesOnType", "value", raw)
			continue
		}
		info.ChangesOnType = append(info.ChangesOnType, bt)
	}

	if ch := n.child("capabilities"); ch != nil {
		info.Capabilities = c.decodeCapabilities(ch)
	}
	if ch := n.child("aclCapability"); ch != nil {
		info.AclCapabilities = c.decodeAclCapabilities(ch)
	}
	for _, ch := range n.eachChild("extendedFeatures") {
		info.ExtensionFeatures = append(info.ExtensionFeatures, c.decodeExtensionFeature(ch))
	}

	info.Extensions = n.extensions()
	return info, nil
}

func (c *Codec) decodeCapabilities(n *node) *model.Capabilities {
	caps := &model.Capabilities{
		ContentStreamUpdates:  enumText(c, n, "capabilityContentStreamUpdatability", cmis.ParseCapabilityContentStreamUpdates),
		Changes:               enumText(c, n, "capabilityChanges", cmis.ParseCapabilityChanges),
		Renditions:            enumText(c, n, "capabilityRenditions", cmis.ParseCapabilityRenditions),
		GetDescendants:        n.childBool("capabilityGetDescendants"),
		GetFolderTree:         n.childBool("capabilityGetFolderTree"),
		Multifiling:           n.childBool("capabilityMultifiling"),
		Unfiling:              n.childBool("capabilityUnfiling"),
		VersionSpecificFiling: n.childBool("capabilityVersionSpecificFiling"),
		PWCSearchable:         n.childBool("capabilityPWCSearchable"),
		PWCUpdatable:          n.childBool("capabilityPWCUpdatable"),
		AllVersionsSearchable: n.childBool("capabilityAllVersionsSearchable"),
		OrderBy:               enumText(c, n, "capabilityOrderBy", cmis.ParseCapabilityOrderBy),
		ACL:                   enumText(c, n, "capabilityACL", cmis.ParseCapabilityACL),
	}
	caps.Query = model.CapabilityQueryPair{
		Query: enumText(c, n, "capabilityQuery", cmis.ParseCapabilityQuery),
		Join:  enumText(c, n, "capabilityJoin", cmis.ParseCapabilityJoin),
	}

	if ch := n.child("capabilityCreatablePropertyTypes"); ch != nil {
		cpt := &model.CreatablePropertyTypes{}
		for _, raw := range ch.childValues("canCreate") {
			pt, ok := cmis.ParsePropertyType(raw)
			if !ok {
				c.logger().Warn("unrecognized creatable property type", "value", raw)
				continue
			}
			cpt.CanCreate = append(cpt.CanCreate, pt)
		}
		cpt.Extensions = ch.extensions()
		caps.CreatablePropertyTypes = cpt
	}

	if ch := n.child("capabilityNewTypeSettableAttributes"); ch != nil {
		caps.NewTypeSettableAttributes = &model.NewTypeSettableAttributes{
			ID:                       ch.childBool("id"),
			LocalName:                ch.childBool("localName"),
			LocalNamespace:           ch.childBool("localNamespace"),
			DisplayName:              ch.childBool("displayName"),
			QueryName:                ch.childBool("queryName"),
			Description:              ch.childBool("description"),
			Creatable:                ch.childBool("creatable"),
			Fileable:                 ch.childBool("fileable"),
			Queryable:                ch.childBool("queryable"),
			FulltextIndexed:          ch.childBool("fulltextIndexed"),
			IncludedInSupertypeQuery: ch.childBool("includedInSupertypeQuery"),
			ControllablePolicy:       ch.childBool("controllablePolicy"),
			ControllableACL:          ch.childBool("controllableACL"),
			Extensions:               ch.extensions(),
		}
	}

	caps.Extensions = n.extensions()
	return caps
}

func (c *Codec) decodeAclCapabilities(n *node) *model.AclCapabilities {
	acl := &model.AclCapabilities{
		SupportedPermissions: enumText(c, n, "supportedPermissions", cmis.ParseSupportedPermissions),
		Propagation:          enumText(c, n, "propagation", cmis.ParseAclPropagation),
	}
	for _, ch := range n.eachChild("permissions") {
		acl.Permissions = append(acl.Permissions, &model.PermissionDefinition{
			ID:          ch.childText("permission"),
			Description: ch.childText("description"),
			Extensions:  ch.extensions(),
		})
	}
	for _, ch := range n.eachChild("mapping") {
		acl.PermissionMapping = append(acl.PermissionMapping, &model.PermissionMapping{
			Key:         ch.childText("key"),
			Permissions: ch.childValues("permission"),
			Extensions:  ch.extensions(),
		})
	}
	acl.Extensions = n.extensions()
	return acl
}

func (c *Codec) decodeExtensionFeature(n *node) *model.ExtensionFeature {
	f := &model.ExtensionFeature{
		ID:           n.childText("id"),
		URL:          n.childText("url"),
		CommonName:   n.childText("commonName"),
		VersionLabel: n.childText("versionLabel"),
		Description:  n.childText("description"),
	}
	for _, ch := range n.eachChild("featureData") {
		if f.FeatureData == nil {
			f.FeatureData = make(map[string]string)
		}
		f.FeatureData[ch.childText("key")] = ch.childText("value")
	}
	f.Extensions = n.extensions()
	return f
}

// EncodeRepositoryInfo renders one cmis:repositoryInfo document.
func (c *Codec) EncodeRepositoryInfo(info *model.RepositoryInfo) ([]byte, error) {
	if info == nil || info.ID == "" {
		return nil, fmt.Errorf("repository info without repository id")
	}
	w := newWriter()
	w.start("cmis:repositoryInfo", nsAttr("cmis", NamespaceCore))
	w.element("cmis:repositoryId", info.ID)
	w.elementOpt("cmis:repositoryName", info.Name)
	w.elementOpt("cmis:repositoryDescription", info.Description)
	w.elementOpt("cmis:vendorName", info.VendorName)
	w.elementOpt("cmis:productName", info.ProductName)
	w.elementOpt("cmis:productVersion", info.ProductVersion)
	w.elementOpt("cmis:rootFolderId", info.RootFolderID)
	if info.Capabilities != nil {
		c.encodeCapabilities(w, info.Capabilities)
	}
	if info.AclCapabilities != nil {
		c.encodeAclCapabilities(w, info.AclCapabilities)
	}
	w.elementOpt("cmis:latestChangeLogToken", info.LatestChangeLogToken)
	w.elementOpt("cmis:cmisVersionSupported", string(info.CMISVersionSupported))
	w.elementOpt("cmis:thinClientURI", info.ThinClientURI)
	w.elementBool("cmis:changesIncomplete", info.ChangesIncomplete)
	for _, bt := range info.ChangesOnType {
		if bt == cmis.BaseTypeItem && !c.version().SupportsItems() {
			c.logger().Warn("dropping item base type from changesOnType for 1.0 target")
			continue
		}
		w.element("cmis:changesOnType", string(bt))
	}
	w.elementOpt("cmis:principalAnonymous", info.PrincipalIDAnonymous)
	w.elementOpt("cmis:principalAnyone", info.PrincipalIDAnyone)
	for _, f := range info.ExtensionFeatures {
		c.encodeExtensionFeature(w, f)
	}
	w.extensionList(info.Extensions)
	w.end("cmis:repositoryInfo")
	return w.bytes(), nil
}

func (c *Codec) encodeCapabilities(w *writer, caps *model.Capabilities) {
	w.start("cmis:capabilities")
	w.elementOpt("cmis:capabilityACL", string(caps.ACL))
	w.elementBool("cmis:capabilityAllVersionsSearchable", caps.AllVersionsSearchable)
	w.elementOpt("cmis:capabilityChanges", string(caps.Changes))
	w.elementOpt("cmis:capabilityContentStreamUpdatability", string(caps.ContentStreamUpdates))
	w.elementBool("cmis:capabilityGetDescendants", caps.GetDescendants)
	w.elementBool("cmis:capabilityGetFolderTree", caps.GetFolderTree)
	if caps.OrderBy != "" {
		if c.version().SupportsItems() {
			w.element("cmis:capabilityOrderBy", string(caps.OrderBy))
		} else {
			c.logger().Warn("dropping capabilityOrderBy for 1.0 target")
		}
	}
	w.elementBool("cmis:capabilityMultifiling", caps.Multifiling)
	w.elementBool("cmis:capabilityPWCSearchable", caps.PWCSearchable)
	w.elementBool("cmis:capabilityPWCUpdatable", caps.PWCUpdatable)
	w.elementOpt("cmis:capabilityQuery", string(caps.Query.Query))
	w.elementOpt("cmis:capabilityRenditions", string(caps.Renditions))
	w.elementBool("cmis:capabilityUnfiling", caps.Unfiling)
	w.elementBool("cmis:capabilityVersionSpecificFiling", caps.VersionSpecificFiling)
	w.elementOpt("cmis:capabilityJoin", string(caps.Query.Join))
	if cpt := caps.CreatablePropertyTypes; cpt != nil {
		w.start("cmis:capabilityCreatablePropertyTypes")
		for _, pt := range cpt.CanCreate {
			w.element("cmis:canCreate", string(pt))
		}
		w.extensionList(cpt.Extensions)
		w.end("cmis:capabilityCreatablePropertyTypes")
	}
	if nts := caps.NewTypeSettableAttributes; nts != nil {
		w.start("cmis:capabilityNewTypeSettableAttributes")
		w.elementBool("cmis:id", nts.ID)
		w.elementBool("cmis:localName", nts.LocalName)
		w.elementBool("cmis:localNamespace", nts.LocalNamespace)
		w.elementBool("cmis:displayName", nts.DisplayName)
		w.elementBool("cmis:queryName", nts.QueryName)
		w.elementBool("cmis:description", nts.Description)
		w.elementBool("cmis:creatable", nts.Creatable)
		w.elementBool("cmis:fileable", nts.Fileable)
		w.elementBool("cmis:queryable", nts.Queryable)
		w.elementBool("cmis:fulltextIndexed", nts.FulltextIndexed)
		w.elementBool("cmis:includedInSupertypeQuery", nts.IncludedInSupertypeQuery)
		w.elementBool("cmis:controllablePolicy", nts.ControllablePolicy)
		w.elementBool("cmis:controllableACL", nts.ControllableACL)
		w.extensionList(nts.Extensions)
		w.end("cmis:capabilityNewTypeSettableAttributes")
	}
	w.extensionList(caps.Extensions)
	w.end("cmis:capabilities")
}

func (c *Codec) encodeAclCapabilities(w *writer, acl *model.AclCapabilities) {
	w.start("cmis:aclCapability")
	w.elementOpt("cmis:supportedPermissions", string(acl.SupportedPermissions))
	w.elementOpt("cmis:propagation", string(acl.Propagation))
	for _, p := range acl.Permissions {
		w.start("cmis:permissions")
		w.element("cmis:permission", p.ID)
		w.elementOpt("cmis:description", p.Description)
		w.extensionList(p.Extensions)
		w.end("cmis:permissions")
	}
	for _, m := range acl.PermissionMapping {
		w.start("cmis:mapping")
		w.element("cmis:key", m.Key)
		for _, p := range m.Permissions {
			w.element("cmis:permission", p)
		}
		w.extensionList(m.Extensions)
		w.end("cmis:mapping")
	}
	w.extensionList(acl.Extensions)
	w.end("cmis:aclCapability")
}

func (c *Codec) encodeExtensionFeature(w *writer, f *model.ExtensionFeature) {
	w.start("cmis:extendedFeatures")
	w.elementOpt("cmis:id", f.ID)
	w.elementOpt("cmis:url", f.URL)
	w.elementOpt("cmis:commonName", f.CommonName)
	w.elementOpt("cmis:versionLabel", f.VersionLabel)
	w.elementOpt("cmis:description", f.Description)
	for _, k := range sortedStringKeys(f.FeatureData) {
		w.start("cmis:featureData")
		w.element("cmis:key", k)
		w.element("cmis:value", f.FeatureData[k])
		w.end("cmis:featureData")
	}
	w.extensionList(f.Extensions)
	w.end("cmis:extendedFeatures")
}
