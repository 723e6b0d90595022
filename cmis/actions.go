package cmis

// Action is one entry of the closed allowable-actions set.
type Action string

const (
	CanDeleteObject            Action = "canDeleteObject"
	CanUpdateProperties        Action = "canUpdateProperties"
	CanGetFolderTree           Action = "canGetFolderTree"
	CanGetProperties           Action = "canGetProperties"
	CanGetObjectRelationships  Action = "canGetObjectRelationships"
	CanGetObjectParents        Action = "canGetObjectParents"
	CanGetFolderParent         Action = "canGetFolderParent"
	CanGetDescendants          Action = "canGetDescendants"
	CanMoveObject              Action = "canMoveObject"
	CanDeleteContentStream     Action = "canDeleteContentStream"
	CanCheckOut                Action = "canCheckOut"
	CanCancelCheckOut          Action = "canCancelCheckOut"
	CanCheckIn                 Action = "canCheckIn"
	CanSetContentStream        Action = "canSetContentStream"
	CanGetAllVersions          Action = "canGetAllVersions"
	CanAddObjectToFolder       Action = "canAddObjectToFolder"
	CanRemoveObjectFromFolder  Action = "canRemoveObjectFromFolder"
	CanGetContentStream        Action = "canGetContentStream"
	CanApplyPolicy             Action = "canApplyPolicy"
	CanGetAppliedPolicies      Action = "canGetAppliedPolicies"
	CanRemovePolicy            Action = "canRemovePolicy"
	CanGetChildren             Action = "canGetChildren"
	CanCreateDocument          Action = "canCreateDocument"
	CanCreateFolder            Action = "canCreateFolder"
	CanCreateRelationship      Action = "canCreateRelationship"
	CanCreateItem              Action = "canCreateItem" // CMIS 1.1
	CanDeleteTree              Action = "canDeleteTree"
	CanGetRenditions           Action = "canGetRenditions"
	CanGetACL                  Action = "canGetACL"
	CanApplyACL                Action = "canApplyACL"
)

// AllActions lists the closed action set in the stable order the encoders
// emit. Decoders ignore wire action names that are not in this list.
var AllActions = []Action{
	CanDeleteObject,
	CanUpdateProperties,
	CanGetFolderTree,
	CanGetProperties,
	CanGetObjectRelationships,
	CanGetObjectParents,
	CanGetFolderParent,
	CanGetDescendants,
	CanMoveObject,
	CanDeleteContentStream,
	CanCheckOut,
	CanCancelCheckOut,
	CanCheckIn,
	CanSetContentStream,
	CanGetAllVersions,
	CanAddObjectToFolder,
	CanRemoveObjectFromFolder,
	CanGetContentStream,
	CanApplyPolicy,
	CanGetAppliedPolicies,
	CanRemovePolicy,
	CanGetChildren,
	CanCreateDocument,
	CanCreateFolder,
	CanCreateRelationship,
	CanCreateItem,
	CanDeleteTree,
	CanGetRenditions,
	CanGetACL,
	CanApplyACL,
}

var knownActions = func() map[Action]struct{} {
	m := make(map[Action]struct{}, len(AllActions))
	for _, a := range AllActions {
		m[a] = struct{}{}
	}
	return m
}()

// ParseAction returns the action for a wire name.
func ParseAction(s string) (Action, bool) {
	if _, ok := knownActions[Action(s)]; ok {
		return Action(s), true
	}
	return "", false
}
