package model

import (
	"github.com/content-interop/cmis-go/cmis"
)

// CreatablePropertyTypes lists the property data kinds the repository allows
// in new type definitions.
type CreatablePropertyTypes struct {
	CanCreate  []cmis.PropertyType
	Extensions []*ExtensionNode
}

// NewTypeSettableAttributes flags which type attributes a client may set
// when creating a type.
type NewTypeSettableAttributes struct {
	ID                       *bool
	LocalName                *bool
	LocalNamespace           *bool
	DisplayName              *bool
	QueryName                *bool
	Description              *bool
	Creatable                *bool
	Fileable                 *bool
	Queryable                *bool
	FulltextIndexed          *bool
	IncludedInSupertypeQuery *bool
	ControllablePolicy       *bool
	ControllableACL          *bool
	Extensions               []*ExtensionNode
}

// Capabilities is the fixed set of repository feature flags.
type Capabilities struct {
	ContentStreamUpdates cmis.CapabilityContentStreamUpdates
	Changes              cmis.CapabilityChanges
	Renditions           cmis.CapabilityRenditions

	GetDescendants        *bool
	GetFolderTree         *bool
	Multifiling           *bool
	Unfiling              *bool
	VersionSpecificFiling *bool
	PWCSearchable         *bool
	PWCUpdatable          *bool
	AllVersionsSearchable *bool

	// OrderBy exists from CMIS 1.1 onward; encoders targeting 1.0 drop it.
	OrderBy cmis.CapabilityOrderBy

	Query CapabilityQueryPair
	ACL   cmis.CapabilityACL

	CreatablePropertyTypes    *CreatablePropertyTypes
	NewTypeSettableAttributes *NewTypeSettableAttributes

	Extensions []*ExtensionNode
}

// CapabilityQueryPair groups the two query-related capability enums.
type CapabilityQueryPair struct {
	Query cmis.CapabilityQuery
	Join  cmis.CapabilityJoin
}

// PermissionDefinition is one repository permission with its description.
type PermissionDefinition struct {
	ID          string
	Description string
	Extensions  []*ExtensionNode
}

// PermissionMapping maps one allowable-operation key to the permissions
// that grant it.
type PermissionMapping struct {
	Key         string
	Permissions []string
	Extensions  []*ExtensionNode
}

// AclCapabilities describes the repository's ACL model.
type AclCapabilities struct {
	SupportedPermissions cmis.SupportedPermissions
	Propagation          cmis.AclPropagation
	Permissions          []*PermissionDefinition
	PermissionMapping    []*PermissionMapping
	Extensions           []*ExtensionNode
}

// ExtensionFeature advertises one optional repository feature.
type ExtensionFeature struct {
	ID           string
	URL          string
	CommonName   string
	VersionLabel string
	Description  string
	FeatureData  map[string]string
	Extensions   []*ExtensionNode
}

// RepositoryInfo is the repository-discovery result. Constructed once per
// discovery fetch, immutable after decode, cached by id.
type RepositoryInfo struct {
	ID             string
	Name           string
	Description    string
	VendorName     string
	ProductName    string
	ProductVersion string

	RootFolderID         string
	LatestChangeLogToken string
	CMISVersionSupported cmis.Version
	ThinClientURI        string
	ChangesIncomplete    *bool
	ChangesOnType        []cmis.BaseTypeID
	PrincipalIDAnonymous string
	PrincipalIDAnyone    string

	Capabilities    *Capabilities
	AclCapabilities *AclCapabilities

	ExtensionFeatures []*ExtensionFeature

	Extensions []*ExtensionNode
}
