package model

import (
	"io"
	"time"

	"github.com/content-interop/cmis-go/cmis"
)

// AllowableActions is a set over the closed action enumeration. Actions
// absent from the map were not reported by the server.
type AllowableActions struct {
	Actions    map[cmis.Action]bool
	Extensions []*ExtensionNode
}

// Allows reports whether the action is present and true.
func (a *AllowableActions) Allows(action cmis.Action) bool {
	if a == nil {
		return false
	}
	return a.Actions[action]
}

// Ace is one access-control entry.
type Ace struct {
	PrincipalID string
	Permissions []string
	Direct      bool
	Extensions  []*ExtensionNode
}

// Acl is an ordered access-control list with an overall exactness flag.
type Acl struct {
	Aces       []*Ace
	IsExact    *bool
	Extensions []*ExtensionNode
}

// Rendition describes one alternative representation of a document.
type Rendition struct {
	StreamID            string
	MimeType            string
	Length              *int64
	Kind                string
	Title               string
	Height              *int64
	Width               *int64
	RenditionDocumentID string
	Extensions          []*ExtensionNode
}

// ChangeEventInfo accompanies objects returned from the change log.
type ChangeEventInfo struct {
	ChangeType cmis.ChangeType
	ChangeTime time.Time
	Extensions []*ExtensionNode
}

// PolicyIDList carries the policies applied to an object.
type PolicyIDList struct {
	IDs        []string
	Extensions []*ExtensionNode
}

// ObjectData is one decoded object. Produced fresh per decode and never
// mutated in place; updates produce a new instance.
type ObjectData struct {
	Properties       *Properties
	AllowableActions *AllowableActions
	Relationships    []*ObjectData
	ChangeEventInfo  *ChangeEventInfo
	Acl              *Acl
	ExactACL         *bool
	PolicyIDs        *PolicyIDList
	Renditions       []*Rendition
	Extensions       []*ExtensionNode
}

// ID returns the cmis:objectId property, or "".
func (o *ObjectData) ID() string {
	if o == nil {
		return ""
	}
	return o.Properties.TextOf(cmis.PropObjectID)
}

// BaseTypeID returns the cmis:baseTypeId property, or "".
func (o *ObjectData) BaseTypeID() cmis.BaseTypeID {
	if o == nil {
		return ""
	}
	return cmis.BaseTypeID(o.Properties.TextOf(cmis.PropBaseTypeID))
}

// TypeID returns the cmis:objectTypeId property, or "".
func (o *ObjectData) TypeID() string {
	if o == nil {
		return ""
	}
	return o.Properties.TextOf(cmis.PropObjectTypeID)
}

// SecondaryTypeIDs returns the cmis:secondaryObjectTypeIds values.
func (o *ObjectData) SecondaryTypeIDs() []string {
	if o == nil {
		return nil
	}
	p := o.Properties.Get(cmis.PropSecondaryObjectTypeIDs)
	if p == nil {
		return nil
	}
	ids := make([]string, 0, len(p.Values))
	for _, v := range p.Values {
		ids = append(ids, v.Text())
	}
	return ids
}

// ChangeToken returns the cmis:changeToken property, or "".
func (o *ObjectData) ChangeToken() string {
	if o == nil {
		return ""
	}
	return o.Properties.TextOf(cmis.PropChangeToken)
}

// ObjectList is one page of objects.
type ObjectList struct {
	Objects      []*ObjectData
	HasMoreItems *bool
	NumItems     *int64
	Extensions   []*ExtensionNode
}

// ObjectInFolderData pairs an object with its path segment in the folder it
// was listed from.
type ObjectInFolderData struct {
	Object      *ObjectData
	PathSegment string
}

// ObjectInFolderList is one page of folder children.
type ObjectInFolderList struct {
	Objects      []*ObjectInFolderData
	HasMoreItems *bool
	NumItems     *int64
	Extensions   []*ExtensionNode
}

// ObjectInFolderContainer is one node of a descendants/folder tree.
type ObjectInFolderContainer struct {
	Object   *ObjectInFolderData
	Children []*ObjectInFolderContainer
}

// ObjectParentData pairs a parent object with the child's path segment
// relative to it.
type ObjectParentData struct {
	Object              *ObjectData
	RelativePathSegment string
}

// FailedToDelete lists the ids a deleteTree call could not remove.
type FailedToDelete struct {
	IDs []string
}

// ContentStream is a document content download. Length is -1 when the
// server did not report one. Partial is true for 206 range responses.
type ContentStream struct {
	Filename string
	MimeType string
	Length   int64
	Partial  bool
	Reader   io.ReadCloser
}
