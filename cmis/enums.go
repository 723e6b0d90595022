// Package cmis defines the protocol vocabulary shared by every binding:
// enumerations with their exact wire strings, browser-binding selector and
// action constants, query parameter names, and protocol version guards.
//
// Every enum carries a static wire-string mapping (String plus ParseXxx);
// unrecognized wire values parse to (zero, false) so callers can choose
// between skipping and failing, which the codecs use to stay tolerant of
// noncompliant servers.
package cmis

// BaseTypeID discriminates the six root content kinds. Type-definition
// decoding fails without one; there is no shape-based fallback.
type BaseTypeID string

const (
	BaseTypeDocument     BaseTypeID = "cmis:document"
	BaseTypeFolder       BaseTypeID = "cmis:folder"
	BaseTypeRelationship BaseTypeID = "cmis:relationship"
	BaseTypePolicy       BaseTypeID = "cmis:policy"
	BaseTypeItem         BaseTypeID = "cmis:item" // CMIS 1.1
	BaseTypeSecondary    BaseTypeID = "cmis:secondary" // CMIS 1.1
)

// ParseBaseTypeID returns the base type for a wire string.
func ParseBaseTypeID(s string) (BaseTypeID, bool) {
	switch BaseTypeID(s) {
	case BaseTypeDocument, BaseTypeFolder, BaseTypeRelationship,
		BaseTypePolicy, BaseTypeItem, BaseTypeSecondary:
		return BaseTypeID(s), true
	}
	return "", false
}

// PropertyType is the data kind of a property definition and its values.
type PropertyType string

const (
	PropertyString   PropertyType = "string"
	PropertyID       PropertyType = "id"
	PropertyInteger  PropertyType = "integer"
	PropertyBoolean  PropertyType = "boolean"
	PropertyDateTime PropertyType = "datetime"
	PropertyDecimal  PropertyType = "decimal"
	PropertyHTML     PropertyType = "html"
	PropertyURI      PropertyType = "uri"
)

func ParsePropertyType(s string) (PropertyType, bool) {
	switch PropertyType(s) {
	case PropertyString, PropertyID, PropertyInteger, PropertyBoolean,
		PropertyDateTime, PropertyDecimal, PropertyHTML, PropertyURI:
		return PropertyType(s), true
	}
	return "", false
}

// Cardinality of a property definition.
type Cardinality string

const (
	CardinalitySingle Cardinality = "single"
	CardinalityMulti  Cardinality = "multi"
)

func ParseCardinality(s string) (Cardinality, bool) {
	switch Cardinality(s) {
	case CardinalitySingle, CardinalityMulti:
		return Cardinality(s), true
	}
	return "", false
}

// Updatability of a property.
type Updatability string

const (
	UpdatabilityReadOnly        Updatability = "readonly"
	UpdatabilityReadWrite       Updatability = "readwrite"
	UpdatabilityWhenCheckedOut  Updatability = "whencheckedout"
	UpdatabilityOnCreate        Updatability = "oncreate"
)

func ParseUpdatability(s string) (Updatability, bool) {
	switch Updatability(s) {
	case UpdatabilityReadOnly, UpdatabilityReadWrite,
		UpdatabilityWhenCheckedOut, UpdatabilityOnCreate:
		return Updatability(s), true
	}
	return "", false
}

// ContentStreamAllowed constrains document content.
type ContentStreamAllowed string

const (
	ContentStreamNotAllowed ContentStreamAllowed = "notallowed"
	ContentStreamAllowedVal ContentStreamAllowed = "allowed"
	ContentStreamRequired   ContentStreamAllowed = "required"
)

func ParseContentStreamAllowed(s string) (ContentStreamAllowed, bool) {
	switch ContentStreamAllowed(s) {
	case ContentStreamNotAllowed, ContentStreamAllowedVal, ContentStreamRequired:
		return ContentStreamAllowed(s), true
	}
	return "", false
}

// DateTimeResolution narrows the precision of DateTime properties.
type DateTimeResolution string

const (
	ResolutionYear DateTimeResolution = "year"
	ResolutionDate DateTimeResolution = "date"
	ResolutionTime DateTimeResolution = "time"
)

func ParseDateTimeResolution(s string) (DateTimeResolution, bool) {
	switch DateTimeResolution(s) {
	case ResolutionYear, ResolutionDate, ResolutionTime:
		return DateTimeResolution(s), true
	}
	return "", false
}

// DecimalPrecision is the wire precision of Decimal properties (IEEE widths).
type DecimalPrecision int64

const (
	Precision32 DecimalPrecision = 32
	Precision64 DecimalPrecision = 64
)

// Repository capability enums.

type CapabilityContentStreamUpdates string

const (
	ContentStreamUpdatesNone    CapabilityContentStreamUpdates = "none"
	ContentStreamUpdatesPWCOnly CapabilityContentStreamUpdates = "pwconly"
	ContentStreamUpdatesAnytime CapabilityContentStreamUpdates = "anytime"
)

func ParseCapabilityContentStreamUpdates(s string) (CapabilityContentStreamUpdates, bool) {
	switch CapabilityContentStreamUpdates(s) {
	case ContentStreamUpdatesNone, ContentStreamUpdatesPWCOnly, ContentStreamUpdatesAnytime:
		return CapabilityContentStreamUpdates(s), true
	}
	return "", false
}

type CapabilityChanges string

const (
	ChangesNone          CapabilityChanges = "none"
	ChangesObjectIDsOnly CapabilityChanges = "objectidsonly"
	ChangesProperties    CapabilityChanges = "properties"
	ChangesAll           CapabilityChanges = "all"
)

func ParseCapabilityChanges(s string) (CapabilityChanges, bool) {
	switch CapabilityChanges(s) {
	case ChangesNone, ChangesObjectIDsOnly, ChangesProperties, ChangesAll:
		return CapabilityChanges(s), true
	}
	return "", false
}

type CapabilityRenditions string

const (
	RenditionsNone CapabilityRenditions = "none"
	RenditionsRead CapabilityRenditions = "read"
)

func ParseCapabilityRenditions(s string) (CapabilityRenditions, bool) {
	switch CapabilityRenditions(s) {
	case RenditionsNone, RenditionsRead:
		return CapabilityRenditions(s), true
	}
	return "", false
}

type CapabilityQuery string

const (
	QueryNone         CapabilityQuery = "none"
	QueryMetadataOnly CapabilityQuery = "metadataonly"
	QueryFullTextOnly CapabilityQuery = "fulltextonly"
	QueryBothSeparate CapabilityQuery = "bothseparate"
	QueryBothCombined CapabilityQuery = "bothcombined"
)

func ParseCapabilityQuery(s string) (CapabilityQuery, bool) {
	switch CapabilityQuery(s) {
	case QueryNone, QueryMetadataOnly, QueryFullTextOnly, QueryBothSeparate, QueryBothCombined:
		return CapabilityQuery(s), true
	}
	return "", false
}

type CapabilityJoin string

const (
	JoinNone          CapabilityJoin = "none"
	JoinInnerOnly     CapabilityJoin = "inneronly"
	JoinInnerAndOuter CapabilityJoin = "innerandouter"
)

func ParseCapabilityJoin(s string) (CapabilityJoin, bool) {
	switch CapabilityJoin(s) {
	case JoinNone, JoinInnerOnly, JoinInnerAndOuter:
		return CapabilityJoin(s), true
	}
	return "", false
}

// CapabilityOrderBy exists from CMIS 1.1 onward.
type CapabilityOrderBy string

const (
	OrderByNone   CapabilityOrderBy = "none"
	OrderByCommon CapabilityOrderBy = "common"
	OrderByCustom CapabilityOrderBy = "custom"
)

func ParseCapabilityOrderBy(s string) (CapabilityOrderBy, bool) {
	switch CapabilityOrderBy(s) {
	case OrderByNone, OrderByCommon, OrderByCustom:
		return CapabilityOrderBy(s), true
	}
	return "", false
}

type CapabilityACL string

const (
	ACLNone     CapabilityACL = "none"
	ACLDiscover CapabilityACL = "discover"
	ACLManage   CapabilityACL = "manage"
)

func ParseCapabilityACL(s string) (CapabilityACL, bool) {
	switch CapabilityACL(s) {
	case ACLNone, ACLDiscover, ACLManage:
		return CapabilityACL(s), true
	}
	return "", false
}

// ACL capability enums.

type SupportedPermissions string

const (
	PermissionsBasic      SupportedPermissions = "basic"
	PermissionsRepository SupportedPermissions = "repository"
	PermissionsBoth       SupportedPermissions = "both"
)

func ParseSupportedPermissions(s string) (SupportedPermissions, bool) {
	switch SupportedPermissions(s) {
	case PermissionsBasic, PermissionsRepository, PermissionsBoth:
		return SupportedPermissions(s), true
	}
	return "", false
}

type AclPropagation string

const (
	PropagationRepositoryDetermined AclPropagation = "repositorydetermined"
	PropagationObjectOnly           AclPropagation = "objectonly"
	PropagationPropagate            AclPropagation = "propagate"
)

func ParseAclPropagation(s string) (AclPropagation, bool) {
	switch AclPropagation(s) {
	case PropagationRepositoryDetermined, PropagationObjectOnly, PropagationPropagate:
		return AclPropagation(s), true
	}
	return "", false
}

// Call-level enums.

type IncludeRelationships string

const (
	RelationshipsNone   IncludeRelationships = "none"
	RelationshipsSource IncludeRelationships = "source"
	RelationshipsTarget IncludeRelationships = "target"
	RelationshipsBoth   IncludeRelationships = "both"
)

type VersioningState string

const (
	VersioningNone       VersioningState = "none"
	VersioningMajor      VersioningState = "major"
	VersioningMinor      VersioningState = "minor"
	VersioningCheckedOut VersioningState = "checkedout"
)

type UnfileObject string

const (
	UnfileObjectUnfile            UnfileObject = "unfile"
	UnfileObjectDeleteSingleFiled UnfileObject = "deletesinglefiled"
	UnfileObjectDelete            UnfileObject = "delete"
)

type RelationshipDirection string

const (
	DirectionSource RelationshipDirection = "source"
	DirectionTarget RelationshipDirection = "target"
	DirectionEither RelationshipDirection = "either"
)

type ReturnVersion string

const (
	ReturnVersionThis        ReturnVersion = "this"
	ReturnVersionLatest      ReturnVersion = "latest"
	ReturnVersionLatestMajor ReturnVersion = "latestmajor"
)

type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeUpdated  ChangeType = "updated"
	ChangeDeleted  ChangeType = "deleted"
	ChangeSecurity ChangeType = "security"
)

func ParseChangeType(s string) (ChangeType, bool) {
	switch ChangeType(s) {
	case ChangeCreated, ChangeUpdated, ChangeDeleted, ChangeSecurity:
		return ChangeType(s), true
	}
	return "", false
}

// DateTimeFormat selects the wire encoding of date-time values: epoch
// milliseconds ("simple", the browser-binding default) or ISO-8601
// ("extended").
type DateTimeFormat string

const (
	DateTimeSimple   DateTimeFormat = "simple"
	DateTimeExtended DateTimeFormat = "extended"
)
