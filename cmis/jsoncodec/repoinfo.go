package jsoncodec

import (
	"encoding/json"
	"strconv"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// RepositoryEntry is one entry of the service document: the decoded
// repository description plus its two durable base URLs.
type RepositoryEntry struct {
	Info          *model.RepositoryInfo
	RepositoryURL string
	RootFolderURL string
}

// DecodeServiceDocument decodes the repository list returned by the service
// endpoint. Entries without a repository id are skipped with a warning;
// a well-formed document with zero usable entries is not an error here.
func (c *Codec) DecodeServiceDocument(data []byte) ([]*RepositoryEntry, error) {
	top, err := ParseObject(data)
	if err != nil {
		return nil, err
	}
	entries := make([]*RepositoryEntry, 0, len(top))
	for key, v := range top {
		m, ok := v.(map[string]any)
		if !ok {
			c.logger().Warn("skipping malformed service document entry", "key", key)
			continue
		}
		entry, err := c.decodeRepositoryEntry(m)
		if err != nil {
			return nil, err
		}
		if entry.Info.ID == "" {
			c.logger().Warn("skipping repository entry without id", "key", key)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DecodeRepositoryInfo decodes a single repository description.
func (c *Codec) DecodeRepositoryInfo(data []byte) (*RepositoryEntry, error) {
	m, err := ParseObject(data)
	if err != nil {
		return nil, err
	}
	return c.decodeRepositoryEntry(m)
}

func (c *Codec) decodeRepositoryEntry(m map[string]any) (*RepositoryEntry, error) {
	o := newObj(m)
	info := &model.RepositoryInfo{
		ID:                   o.str("repositoryId"),
		Name:                 o.str("repositoryName"),
		Description:          o.str("repositoryDescription"),
		VendorName:           o.str("vendorName"),
		ProductName:          o.str("productName"),
		ProductVersion:       o.str("productVersion"),
		RootFolderID:         o.str("rootFolderId"),
		LatestChangeLogToken: o.str("latestChangeLogToken"),
		ThinClientURI:        o.str("thinClientURI"),
		ChangesIncomplete:    o.boolPtr("changesIncomplete"),
		PrincipalIDAnonymous: o.str("principalIdAnonymous"),
		PrincipalIDAnyone:    o.str("principalIdAnyone"),
	}
	info.CMISVersionSupported = cmis.ParseVersion(o.str("cmisVersionSupported"))

	for _, s := range o.strings("changesOnType") {
		bt, ok := cmis.ParseBaseTypeID(s)
		if !ok {
			c.logger().Warn("skipping unknown changesOnType entry", "value", s)
			continue
		}
		info.ChangesOnType = append(info.ChangesOnType, bt)
	}

	if caps := o.object("capabilities"); caps != nil {
		info.Capabilities = c.decodeCapabilities(caps)
	}
	if aclCaps := o.object("aclCapabilities"); aclCaps != nil {
		info.AclCapabilities = c.decodeAclCapabilities(aclCaps)
	}
	for _, v := range o.array("extendedFeatures") {
		if fm, ok := v.(map[string]any); ok {
			info.ExtensionFeatures = append(info.ExtensionFeatures, c.decodeExtensionFeature(fm))
		}
	}

	entry := &RepositoryEntry{
		Info:          info,
		RepositoryURL: o.str("repositoryUrl"),
		RootFolderURL: o.str("rootFolderUrl"),
	}
	info.Extensions = o.extensions()
	return entry, nil
}

// enumField parses an enum-valued key, logging and returning the zero value
// on an unrecognized wire string.
func enumField[T ~string](c *Codec, o *obj, key string, parse func(string) (T, bool)) T {
	s := o.str(key)
	if s == "" {
		return T("")
	}
	v, ok := parse(s)
	if !ok {
		c.logger().Warn("skipping unrecognized enum value", "field", key, "value", s)
		return T("")
	}
	return v
}

func (c *Codec) decodeCapabilities(m map[string]any) *model.Capabilities {
	o := newObj(m)
	caps := &model.Capabilities{
		ContentStreamUpdates: enumField(c, o, "capabilityContentStreamUpdatability", cmis.ParseCapabilityContentStreamUpdates),
		Changes:              enumField(c, o, "capabilityChanges", cmis.ParseCapabilityChanges),
		Renditions:           enumField(c, o, "capabilityRenditions", cmis.ParseCapabilityRenditions),

		GetDescendants:        o.boolPtr("capabilityGetDescendants"),
		GetFolderTree:         o.boolPtr("capabilityGetFolderTree"),
		Multifiling:           o.boolPtr("capabilityMultifiling"),
		Unfiling:              o.boolPtr("capabilityUnfiling"),
		VersionSpecificFiling: o.boolPtr("capabilityVersionSpecificFiling"),
		PWCSearchable:         o.boolPtr("capabilityPWCSearchable"),
		PWCUpdatable:          o.boolPtr("capabilityPWCUpdatable"),
		AllVersionsSearchable: o.boolPtr("capabilityAllVersionsSearchable"),

		OrderBy: enumField(c, o, "capabilityOrderBy", cmis.ParseCapabilityOrderBy),
		ACL:     enumField(c, o, "capabilityACL", cmis.ParseCapabilityACL),
	}
	caps.Query.Query = enumField(c, o, "capabilityQuery", cmis.ParseCapabilityQuery)
	caps.Query.Join = enumField(c, o, "capabilityJoin", cmis.ParseCapabilityJoin)

	if cpt := o.object("capabilityCreatablePropertyTypes"); cpt != nil {
		co := newObj(cpt)
		out := &model.CreatablePropertyTypes{}
		for _, s := range co.strings("canCreate") {
			pt, ok := cmis.ParsePropertyType(s)
			if !ok {
				c.logger().Warn("skipping unknown creatable property type", "value", s)
				continue
			}
			out.CanCreate = append(out.CanCreate, pt)
		}
		out.Extensions = co.extensions()
		caps.CreatablePropertyTypes = out
	}
	if nts := o.object("capabilityNewTypeSettableAttributes"); nts != nil {
		no := newObj(nts)
		caps.NewTypeSettableAttributes = &model.NewTypeSettableAttributes{
			ID:                       no.boolPtr("id"),
			LocalName:                no.boolPtr("localName"),
			LocalNamespace:           no.boolPtr("localNamespace"),
			DisplayName:              no.boolPtr("displayName"),
			QueryName:                no.boolPtr("queryName"),
			Description:              no.boolPtr("description"),
			Creatable:                no.boolPtr("creatable"),
			Fileable:                 no.boolPtr("fileable"),
			Queryable:                no.boolPtr("queryable"),
			FulltextIndexed:          no.boolPtr("fulltextIndexed"),
			IncludedInSupertypeQuery: no.boolPtr("includedInSupertypeQuery"),
			ControllablePolicy:       no.boolPtr("controllablePolicy"),
			ControllableACL:          no.boolPtr("controllableACL"),
			Extensions:               no.extensions(),
		}
	}
	caps.Extensions = o.extensions()
	return caps
}

func (c *Codec) decodeAclCapabilities(m map[string]any) *model.AclCapabilities {
	o := newObj(m)
	caps := &model.AclCapabilities{
		SupportedPermissions: enumField(c, o, "supportedPermissions", cmis.ParseSupportedPermissions),
		Propagation:          enumField(c, o, "propagation", cmis.ParseAclPropagation),
	}
	for _, v := range o.array("permissions") {
		pm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		po := newObj(pm)
		caps.Permissions = append(caps.Permissions, &model.PermissionDefinition{
			ID:          po.str("permission"),
			Description: po.str("description"),
			Extensions:  po.extensions(),
		})
	}
	for _, v := range o.array("permissionMapping") {
		mm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		mo := newObj(mm)
		caps.PermissionMapping = append(caps.PermissionMapping, &model.PermissionMapping{
			Key:         mo.str("key"),
			Permissions: mo.strings("permission"),
			Extensions:  mo.extensions(),
		})
	}
	caps.Extensions = o.extensions()
	return caps
}

func (c *Codec) decodeExtensionFeature(m map[string]any) *model.ExtensionFeature {
	o := newObj(m)
	f := &model.ExtensionFeature{
		ID:           o.str("id"),
		URL:          o.str("url"),
		CommonName:   o.str("commonName"),
		VersionLabel: o.str("versionLabel"),
		Description:  o.str("description"),
	}
	if data := o.object("featureData"); data != nil {
		f.FeatureData = make(map[string]string, len(data))
		for k, v := range data {
			if s, ok := v.(string); ok {
				f.FeatureData[k] = s
			}
		}
	}
	f.Extensions = o.extensions()
	return f
}

// EncodeRepositoryInfo renders a repository description, applying the
// version guard: 1.1-only fields are dropped with a warning when targeting
// CMIS 1.0.
func (c *Codec) EncodeRepositoryInfo(info *model.RepositoryInfo) map[string]any {
	out := make(map[string]any)
	putStr(out, "repositoryId", info.ID)
	putStr(out, "repositoryName", info.Name)
	putStr(out, "repositoryDescription", info.Description)
	putStr(out, "vendorName", info.VendorName)
	putStr(out, "productName", info.ProductName)
	putStr(out, "productVersion", info.ProductVersion)
	putStr(out, "rootFolderId", info.RootFolderID)
	putStr(out, "latestChangeLogToken", info.LatestChangeLogToken)
	putStr(out, "cmisVersionSupported", string(info.CMISVersionSupported))
	putStr(out, "thinClientURI", info.ThinClientURI)
	putBool(out, "changesIncomplete", info.ChangesIncomplete)
	if len(info.ChangesOnType) > 0 {
		arr := make([]any, 0, len(info.ChangesOnType))
		for _, bt := range info.ChangesOnType {
			if bt == cmis.BaseTypeItem && !c.version().SupportsItems() {
				c.logger().Warn("dropping item base type from changesOnType for CMIS 1.0 target")
				continue
			}
			arr = append(arr, string(bt))
		}
		out["changesOnType"] = arr
	}
	putStr(out, "principalIdAnonymous", info.PrincipalIDAnonymous)
	putStr(out, "principalIdAnyone", info.PrincipalIDAnyone)
	if info.Capabilities != nil {
		out["capabilities"] = c.encodeCapabilities(info.Capabilities)
	}
	if info.AclCapabilities != nil {
		out["aclCapabilities"] = c.encodeAclCapabilities(info.AclCapabilities)
	}
	if len(info.ExtensionFeatures) > 0 {
		arr := make([]any, 0, len(info.ExtensionFeatures))
		for _, f := range info.ExtensionFeatures {
			arr = append(arr, c.encodeExtensionFeature(f))
		}
		out["extendedFeatures"] = arr
	}
	writeExtensions(out, info.Extensions)
	return out
}

func (c *Codec) encodeCapabilities(caps *model.Capabilities) map[string]any {
	out := make(map[string]any)
	putStr(out, "capabilityContentStreamUpdatability", string(caps.ContentStreamUpdates))
	putStr(out, "capabilityChanges", string(caps.Changes))
	putStr(out, "capabilityRenditions", string(caps.Renditions))
	putBool(out, "capabilityGetDescendants", caps.GetDescendants)
	putBool(out, "capabilityGetFolderTree", caps.GetFolderTree)
	putBool(out, "capabilityMultifiling", caps.Multifiling)
	putBool(out, "capabilityUnfiling", caps.Unfiling)
	putBool(out, "capabilityVersionSpecificFiling", caps.VersionSpecificFiling)
	putBool(out, "capabilityPWCSearchable", caps.PWCSearchable)
	putBool(out, "capabilityPWCUpdatable", caps.PWCUpdatable)
	putBool(out, "capabilityAllVersionsSearchable", caps.AllVersionsSearchable)
	if caps.OrderBy != "" {
		if c.version().SupportsItems() {
			out["capabilityOrderBy"] = string(caps.OrderBy)
		} else {
			c.logger().Warn("dropping capabilityOrderBy for CMIS 1.0 target")
		}
	}
	putStr(out, "capabilityQuery", string(caps.Query.Query))
	putStr(out, "capabilityJoin", string(caps.Query.Join))
	putStr(out, "capabilityACL", string(caps.ACL))
	if cpt := caps.CreatablePropertyTypes; cpt != nil {
		m := make(map[string]any)
		arr := make([]any, 0, len(cpt.CanCreate))
		for _, pt := range cpt.CanCreate {
			arr = append(arr, string(pt))
		}
		m["canCreate"] = arr
		writeExtensions(m, cpt.Extensions)
		out["capabilityCreatablePropertyTypes"] = m
	}
	if nts := caps.NewTypeSettableAttributes; nts != nil {
		m := make(map[string]any)
		putBool(m, "id", nts.ID)
		putBool(m, "localName", nts.LocalName)
		putBool(m, "localNamespace", nts.LocalNamespace)
		putBool(m, "displayName", nts.DisplayName)
		putBool(m, "queryName", nts.QueryName)
		putBool(m, "description", nts.Description)
		putBool(m, "creatable", nts.Creatable)
		putBool(m, "fileable", nts.Fileable)
		putBool(m, "queryable", nts.Queryable)
		putBool(m, "fulltextIndexed", nts.FulltextIndexed)
		putBool(m, "includedInSupertypeQuery", nts.IncludedInSupertypeQuery)
		putBool(m, "controllablePolicy", nts.ControllablePolicy)
		putBool(m, "controllableACL", nts.ControllableACL)
		writeExtensions(m, nts.Extensions)
		out["capabilityNewTypeSettableAttributes"] = m
	}
	writeExtensions(out, caps.Extensions)
	return out
}

func (c *Codec) encodeAclCapabilities(caps *model.AclCapabilities) map[string]any {
	out := make(map[string]any)
	putStr(out, "supportedPermissions", string(caps.SupportedPermissions))
	putStr(out, "propagation", string(caps.Propagation))
	if len(caps.Permissions) > 0 {
		arr := make([]any, 0, len(caps.Permissions))
		for _, p := range caps.Permissions {
			m := make(map[string]any)
			putStr(m, "permission", p.ID)
			putStr(m, "description", p.Description)
			writeExtensions(m, p.Extensions)
			arr = append(arr, m)
		}
		out["permissions"] = arr
	}
	if len(caps.PermissionMapping) > 0 {
		arr := make([]any, 0, len(caps.PermissionMapping))
		for _, pm := range caps.PermissionMapping {
			m := make(map[string]any)
			putStr(m, "key", pm.Key)
			if len(pm.Permissions) > 0 {
				perms := make([]any, 0, len(pm.Permissions))
				for _, p := range pm.Permissions {
					perms = append(perms, p)
				}
				m["permission"] = perms
			}
			writeExtensions(m, pm.Extensions)
			arr = append(arr, m)
		}
		out["permissionMapping"] = arr
	}
	writeExtensions(out, caps.Extensions)
	return out
}

func (c *Codec) encodeExtensionFeature(f *model.ExtensionFeature) map[string]any {
	out := make(map[string]any)
	putStr(out, "id", f.ID)
	putStr(out, "url", f.URL)
	putStr(out, "commonName", f.CommonName)
	putStr(out, "versionLabel", f.VersionLabel)
	putStr(out, "description", f.Description)
	if len(f.FeatureData) > 0 {
		data := make(map[string]any, len(f.FeatureData))
		for k, v := range f.FeatureData {
			data[k] = v
		}
		out["featureData"] = data
	}
	writeExtensions(out, f.Extensions)
	return out
}

func putStr(out map[string]any, key, v string) {
	if v != "" {
		out[key] = v
	}
}

func putBool(out map[string]any, key string, v *bool) {
	if v != nil {
		out[key] = *v
	}
}

func putInt(out map[string]any, key string, v *int64) {
	if v != nil {
		out[key] = json.Number(strconv.FormatInt(*v, 10))
	}
}
