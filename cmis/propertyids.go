package cmis

// Well-known property ids used by the invocation layer and the succinct
// decoder. The full standard set is larger; these are the ones the binding
// itself reads or writes.
const (
	PropObjectID               = "cmis:objectId"
	PropBaseTypeID             = "cmis:baseTypeId"
	PropObjectTypeID           = "cmis:objectTypeId"
	PropSecondaryObjectTypeIDs = "cmis:secondaryObjectTypeIds"
	PropName                   = "cmis:name"
	PropChangeToken            = "cmis:changeToken"
	PropSourceID               = "cmis:sourceId"
	PropTargetID               = "cmis:targetId"
	PropVersionSeriesID        = "cmis:versionSeriesId"
	PropIsLatestVersion        = "cmis:isLatestVersion"
	PropContentStreamFileName  = "cmis:contentStreamFileName"
	PropContentStreamMimeType  = "cmis:contentStreamMimeType"
	PropPath                   = "cmis:path"
)
