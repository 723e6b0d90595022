package cmis

// Browser-binding selectors. A selector names the sub-resource or read
// operation a URL targets, carried as the cmisselector query parameter.
const (
	SelectorRepositoryInfo  = "repositoryInfo"
	SelectorLastResult      = "lastResult"
	SelectorTypeDefinition  = "typeDefinition"
	SelectorTypeChildren    = "typeChildren"
	SelectorTypeDescendants = "typeDescendants"
	SelectorObject          = "object"
	SelectorProperties      = "properties"
	SelectorAllowableActs   = "allowableActions"
	SelectorRenditions      = "renditions"
	SelectorChildren        = "children"
	SelectorDescendants     = "descendants"
	SelectorParents         = "parents"
	SelectorParent          = "parent"
	SelectorFolderTree      = "folderTree"
	SelectorCheckedOut      = "checkedout"
	SelectorVersions        = "versions"
	SelectorRelationships   = "relationships"
	SelectorPolicies        = "policies"
	SelectorACL             = "acl"
	SelectorContent         = "content"
	SelectorContentChanges  = "contentChanges"
	SelectorQuery           = "query"
)

// Browser-binding write actions, carried as the cmisaction form field.
const (
	ActionCreateDocument     = "createDocument"
	ActionCreateFolder       = "createFolder"
	ActionCreateRelationship = "createRelationship"
	ActionCreatePolicy       = "createPolicy"
	ActionCreateItem         = "createItem"
	ActionUpdateProperties   = "update"
	ActionSetContent         = "setContent"
	ActionAppendContent      = "appendContent"
	ActionDeleteContent      = "deleteContent"
	ActionDelete             = "delete"
	ActionDeleteTree         = "deleteTree"
	ActionMove               = "move"
	ActionCheckOut           = "checkOut"
	ActionCancelCheckOut     = "cancelCheckOut"
	ActionCheckIn            = "checkIn"
	ActionApplyPolicy        = "applyPolicy"
	ActionRemovePolicy       = "removePolicy"
	ActionApplyACL           = "applyACL"
	ActionQuery              = "query"
	ActionCreateType         = "createType"
	ActionUpdateType         = "updateType"
	ActionDeleteType         = "deleteType"
)

// Query parameter names.
const (
	ParamSelector             = "cmisselector"
	ParamAction               = "cmisaction"
	ParamObjectID             = "objectId"
	ParamTypeID               = "typeId"
	ParamFilter               = "filter"
	ParamMaxItems             = "maxItems"
	ParamSkipCount            = "skipCount"
	ParamOrderBy              = "orderBy"
	ParamAllowableActions     = "includeAllowableActions"
	ParamRelationships        = "includeRelationships"
	ParamRenditionFilter      = "renditionFilter"
	ParamPolicyIDs            = "includePolicyIds"
	ParamACL                  = "includeACL"
	ParamPathSegment          = "includePathSegment"
	ParamRelativePathSegment  = "includeRelativePathSegment"
	ParamDepth                = "depth"
	ParamPropertyDefinitions  = "includePropertyDefinitions"
	ParamSuccinct             = "succinct"
	ParamDateTimeFormat       = "dateTimeFormat"
	ParamChangeLogToken       = "changeLogToken"
	ParamIncludeProperties    = "includeProperties"
	ParamStatement            = "q"
	ParamSearchAllVersions    = "searchAllVersions"
	ParamAllVersions          = "allVersions"
	ParamMajor                = "major"
	ParamVersioningState      = "versioningState"
	ParamOverwriteFlag        = "overwriteFlag"
	ParamIsLastChunk          = "isLastChunk"
	ParamSourceFolderID       = "sourceFolderId"
	ParamTargetFolderID       = "targetFolderId"
	ParamContinueOnFailure    = "continueOnFailure"
	ParamUnfileObjects        = "unfileObjects"
	ParamOnlyBasicPermissions = "onlyBasicPermissions"
	ParamACLPropagation       = "ACLPropagation"
	ParamReturnVersion        = "returnVersion"
	ParamStreamID             = "streamId"
	ParamToken                = "token"
)
