package jsoncodec

import (
	"context"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// DecodeObject decodes a single object from wire bytes. The resolver is
// only consulted for succinct property bags.
func (c *Codec) DecodeObject(ctx context.Context, data []byte, resolver TypeResolver) (*model.ObjectData, error) {
	m, err := ParseObject(data)
	if err != nil {
		return nil, err
	}
	return c.decodeObject(ctx, m, resolver)
}

func (c *Codec) decodeObject(ctx context.Context, m map[string]any, resolver TypeResolver) (*model.ObjectData, error) {
	o := newObj(m)
	obj := &model.ObjectData{}

	if sp := o.object("succinctProperties"); sp != nil {
		props, err := c.decodeSuccinctProperties(ctx, sp, resolver)
		if err != nil {
			return nil, err
		}
		obj.Properties = props
	} else if vp := o.object("properties"); vp != nil {
		props, err := c.decodeVerboseProperties(vp)
		if err != nil {
			return nil, err
		}
		obj.Properties = props
	}
	if pe := o.object("propertiesExtension"); pe != nil && obj.Properties != nil {
		po := newObj(pe)
		obj.Properties.Extensions = po.extensions()
	}

	if aa := o.object("allowableActions"); aa != nil {
		obj.AllowableActions = c.decodeAllowableActions(aa)
	}
	for _, v := range o.array("relationships") {
		rm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		rel, err := c.decodeObject(ctx, rm, resolver)
		if err != nil {
			return nil, err
		}
		obj.Relationships = append(obj.Relationships, rel)
	}
	if ce := o.object("changeEventInfo"); ce != nil {
		obj.ChangeEventInfo = c.decodeChangeEventInfo(ce)
	}
	if acl := o.object("acl"); acl != nil {
		obj.Acl = c.decodeAcl(acl)
	}
	obj.ExactACL = o.boolPtr("exactACL")
	if pids := o.object("policyIds"); pids != nil {
		po := newObj(pids)
		obj.PolicyIDs = &model.PolicyIDList{
			IDs:        po.strings("ids"),
			Extensions: po.extensions(),
		}
	}
	for _, v := range o.array("renditions") {
		rm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		obj.Renditions = append(obj.Renditions, c.decodeRendition(rm))
	}

	obj.Extensions = o.extensions()
	return obj, nil
}

// decodeAllowableActions keeps recognized action names and silently ignores
// unknown ones, preserving forward compatibility with servers that add
// actions.
func (c *Codec) decodeAllowableActions(m map[string]any) *model.AllowableActions {
	o := newObj(m)
	aa := &model.AllowableActions{Actions: make(map[cmis.Action]bool)}
	for _, name := range cmis.AllActions {
		if b := o.boolPtr(string(name)); b != nil {
			aa.Actions[name] = *b
		}
	}
	for key, v := range m {
		if o.consumed[key] {
			continue
		}
		if _, isBool := v.(bool); isBool {
			// Unknown action name: drop rather than error.
			o.consumed[key] = true
		}
	}
	aa.Extensions = o.extensions()
	return aa
}

func (c *Codec) decodeAcl(m map[string]any) *model.Acl {
	o := newObj(m)
	acl := &model.Acl{IsExact: o.boolPtr("isExact")}
	for _, v := range o.array("aces") {
		am, ok := v.(map[string]any)
		if !ok {
			continue
		}
		ao := newObj(am)
		ace := &model.Ace{Permissions: ao.strings("permissions")}
		if principal := ao.object("principal"); principal != nil {
			po := newObj(principal)
			ace.PrincipalID = po.str("principalId")
		}
		if direct := ao.boolPtr("isDirect"); direct != nil {
			ace.Direct = *direct
		}
		ace.Extensions = ao.extensions()
		acl.Aces = append(acl.Aces, ace)
	}
	acl.Extensions = o.extensions()
	return acl
}

func (c *Codec) decodeChangeEventInfo(m map[string]any) *model.ChangeEventInfo {
	o := newObj(m)
	info := &model.ChangeEventInfo{}
	if ct, ok := cmis.ParseChangeType(o.str("changeType")); ok {
		info.ChangeType = ct
	} else {
		c.logger().Warn("skipping unrecognized change type")
	}
	if raw, present := o.take("changeTime"); present {
		if ts, err := parseDateTime(raw); err == nil {
			info.ChangeTime = ts
		} else {
			c.logger().Warn("skipping malformed change time", "error", err)
		}
	}
	info.Extensions = o.extensions()
	return info
}

func (c *Codec) decodeRendition(m map[string]any) *model.Rendition {
	o := newObj(m)
	return &model.Rendition{
		StreamID:            o.str("streamId"),
		MimeType:            o.str("mimeType"),
		Length:              o.intPtr("length"),
		Kind:                o.str("kind"),
		Title:               o.str("title"),
		Height:              o.intPtr("height"),
		Width:               o.intPtr("width"),
		RenditionDocumentID: o.str("renditionDocumentId"),
		Extensions:          o.extensions(),
	}
}

// DecodeObjectList decodes a paged object list keyed by "objects".
func (c *Codec) DecodeObjectList(ctx context.Context, data []byte, resolver TypeResolver) (*model.ObjectList, error) {
	return c.decodeObjectList(ctx, data, "objects", resolver)
}

// DecodeQueryResultList decodes a query result page keyed by "results".
func (c *Codec) DecodeQueryResultList(ctx context.Context, data []byte, resolver TypeResolver) (*model.ObjectList, error) {
	return c.decodeObjectList(ctx, data, "results", resolver)
}

// DecodeContentChanges decodes a change-log page and the next change-log
// token when the server reports one.
func (c *Codec) DecodeContentChanges(ctx context.Context, data []byte, resolver TypeResolver) (*model.ObjectList, string, error) {
	m, err := ParseObject(data)
	if err != nil {
		return nil, "", err
	}
	o := newObj(m)
	token := o.str("changeLogToken")
	list, err := c.objectListFrom(ctx, o, "objects", resolver)
	if err != nil {
		return nil, "", err
	}
	return list, token, nil
}

func (c *Codec) decodeObjectList(ctx context.Context, data []byte, key string, resolver TypeResolver) (*model.ObjectList, error) {
	m, err := ParseObject(data)
	if err != nil {
		return nil, err
	}
	return c.objectListFrom(ctx, newObj(m), key, resolver)
}

func (c *Codec) objectListFrom(ctx context.Context, o *obj, key string, resolver TypeResolver) (*model.ObjectList, error) {
	list := &model.ObjectList{
		HasMoreItems: o.boolPtr("hasMoreItems"),
		NumItems:     o.intPtr("numItems"),
	}
	for _, v := range o.array(key) {
		om, ok := v.(map[string]any)
		if !ok {
			continue
		}
		obj, err := c.decodeObject(ctx, om, resolver)
		if err != nil {
			return nil, err
		}
		list.Objects = append(list.Objects, obj)
	}
	list.Extensions = o.extensions()
	return list, nil
}

// DecodeChildren decodes one page of folder children.
func (c *Codec) DecodeChildren(ctx context.Context, data []byte, resolver TypeResolver) (*model.ObjectInFolderList, error) {
	m, err := ParseObject(data)
	if err != nil {
		return nil, err
	}
	o := newObj(m)
	list := &model.ObjectInFolderList{
		HasMoreItems: o.boolPtr("hasMoreItems"),
		NumItems:     o.intPtr("numItems"),
	}
	for _, v := range o.array("objects") {
		om, ok := v.(map[string]any)
		if !ok {
			continue
		}
		entry, err := c.decodeObjectInFolder(ctx, om, resolver)
		if err != nil {
			return nil, err
		}
		list.Objects = append(list.Objects, entry)
	}
	list.Extensions = o.extensions()
	return list, nil
}

func (c *Codec) decodeObjectInFolder(ctx context.Context, m map[string]any, resolver TypeResolver) (*model.ObjectInFolderData, error) {
	o := newObj(m)
	entry := &model.ObjectInFolderData{PathSegment: o.str("pathSegment")}
	if om := o.object("object"); om != nil {
		obj, err := c.decodeObject(ctx, om, resolver)
		if err != nil {
			return nil, err
		}
		entry.Object = obj
	}
	return entry, nil
}

// DecodeDescendants decodes a descendants or folder tree.
func (c *Codec) DecodeDescendants(ctx context.Context, data []byte, resolver TypeResolver) ([]*model.ObjectInFolderContainer, error) {
	arr, err := ParseArray(data)
	if err != nil {
		return nil, err
	}
	return c.decodeContainers(ctx, arr, resolver)
}

func (c *Codec) decodeContainers(ctx context.Context, arr []any, resolver TypeResolver) ([]*model.ObjectInFolderContainer, error) {
	var out []*model.ObjectInFolderContainer
	for _, v := range arr {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		o := newObj(m)
		container := &model.ObjectInFolderContainer{}
		if om := o.object("object"); om != nil {
			entry, err := c.decodeObjectInFolder(ctx, om, resolver)
			if err != nil {
				return nil, err
			}
			container.Object = entry
		}
		if children := o.array("children"); children != nil {
			sub, err := c.decodeContainers(ctx, children, resolver)
			if err != nil {
				return nil, err
			}
			container.Children = sub
		}
		out = append(out, container)
	}
	return out, nil
}

// DecodeObjectParents decodes the parent list of a fileable object.
func (c *Codec) DecodeObjectParents(ctx context.Context, data []byte, resolver TypeResolver) ([]*model.ObjectParentData, error) {
	arr, err := ParseArray(data)
	if err != nil {
		return nil, err
	}
	var out []*model.ObjectParentData
	for _, v := range arr {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		o := newObj(m)
		parent := &model.ObjectParentData{RelativePathSegment: o.str("relativePathSegment")}
		if om := o.object("object"); om != nil {
			obj, err := c.decodeObject(ctx, om, resolver)
			if err != nil {
				return nil, err
			}
			parent.Object = obj
		}
		out = append(out, parent)
	}
	return out, nil
}

// DecodeAllowableActions decodes a standalone allowable-actions document.
func (c *Codec) DecodeAllowableActions(data []byte) (*model.AllowableActions, error) {
	m, err := ParseObject(data)
	if err != nil {
		return nil, err
	}
	return c.decodeAllowableActions(m), nil
}

// DecodeACL decodes a standalone ACL document.
func (c *Codec) DecodeACL(data []byte) (*model.Acl, error) {
	m, err := ParseObject(data)
	if err != nil {
		return nil, err
	}
	return c.decodeAcl(m), nil
}

// DecodeRenditions decodes a standalone rendition list.
func (c *Codec) DecodeRenditions(data []byte) ([]*model.Rendition, error) {
	arr, err := ParseArray(data)
	if err != nil {
		return nil, err
	}
	var out []*model.Rendition
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			out = append(out, c.decodeRendition(m))
		}
	}
	return out, nil
}

// DecodeFailedToDelete decodes a deleteTree failure report.
func (c *Codec) DecodeFailedToDelete(data []byte) (*model.FailedToDelete, error) {
	m, err := ParseObject(data)
	if err != nil {
		return nil, err
	}
	o := newObj(m)
	return &model.FailedToDelete{IDs: o.strings("ids")}, nil
}

// EncodeObject renders an object in the requested property mode. The walk
// is depth-first in fixed field order; the extension tree is emitted last so
// unknown round-tripped content reappears adjacent to known fields.
func (c *Codec) EncodeObject(obj *model.ObjectData, succinct bool, typeDef *model.TypeDefinition) (map[string]any, error) {
	out := make(map[string]any)
	if obj.Properties != nil {
		props, err := c.EncodeProperties(obj.Properties, succinct, typeDef)
		if err != nil {
			return nil, err
		}
		if succinct {
			out["succinctProperties"] = props
		} else {
			out["properties"] = props
		}
		if len(obj.Properties.Extensions) > 0 {
			pe := make(map[string]any)
			writeExtensions(pe, obj.Properties.Extensions)
			out["propertiesExtension"] = pe
		}
	}
	if obj.AllowableActions != nil {
		out["allowableActions"] = c.encodeAllowableActions(obj.AllowableActions)
	}
	if len(obj.Relationships) > 0 {
		arr := make([]any, 0, len(obj.Relationships))
		for _, rel := range obj.Relationships {
			rm, err := c.EncodeObject(rel, succinct, nil)
			if err != nil {
				return nil, err
			}
			arr = append(arr, rm)
		}
		out["relationships"] = arr
	}
	if ce := obj.ChangeEventInfo; ce != nil {
		m := make(map[string]any)
		putStr(m, "changeType", string(ce.ChangeType))
		if !ce.ChangeTime.IsZero() {
			m["changeTime"] = c.encodeValue(model.DateTimeValue(ce.ChangeTime))
		}
		writeExtensions(m, ce.Extensions)
		out["changeEventInfo"] = m
	}
	if obj.Acl != nil {
		out["acl"] = c.EncodeACL(obj.Acl)
	}
	putBool(out, "exactACL", obj.ExactACL)
	if pids := obj.PolicyIDs; pids != nil {
		m := make(map[string]any)
		m["ids"] = toAnySlice(pids.IDs)
		writeExtensions(m, pids.Extensions)
		out["policyIds"] = m
	}
	if len(obj.Renditions) > 0 {
		arr := make([]any, 0, len(obj.Renditions))
		for _, r := range obj.Renditions {
			arr = append(arr, c.encodeRendition(r))
		}
		out["renditions"] = arr
	}
	writeExtensions(out, obj.Extensions)
	return out, nil
}

// encodeAllowableActions enumerates the closed action set in its stable
// order, emitting one boolean per action present in the set.
func (c *Codec) encodeAllowableActions(aa *model.AllowableActions) map[string]any {
	out := make(map[string]any)
	for _, name := range cmis.AllActions {
		if name == cmis.CanCreateItem && !c.version().SupportsItems() {
			if _, present := aa.Actions[name]; present {
				c.logger().Warn("dropping canCreateItem for CMIS 1.0 target")
			}
			continue
		}
		if allowed, present := aa.Actions[name]; present {
			out[string(name)] = allowed
		}
	}
	writeExtensions(out, aa.Extensions)
	return out
}

// EncodeACL renders an access-control list.
func (c *Codec) EncodeACL(acl *model.Acl) map[string]any {
	out := make(map[string]any)
	arr := make([]any, 0, len(acl.Aces))
	for _, ace := range acl.Aces {
		am := make(map[string]any)
		am["principal"] = map[string]any{"principalId": ace.PrincipalID}
		am["permissions"] = toAnySlice(ace.Permissions)
		am["isDirect"] = ace.Direct
		writeExtensions(am, ace.Extensions)
		arr = append(arr, am)
	}
	out["aces"] = arr
	putBool(out, "isExact", acl.IsExact)
	writeExtensions(out, acl.Extensions)
	return out
}

func (c *Codec) encodeRendition(r *model.Rendition) map[string]any {
	out := make(map[string]any)
	putStr(out, "streamId", r.StreamID)
	putStr(out, "mimeType", r.MimeType)
	putInt(out, "length", r.Length)
	putStr(out, "kind", r.Kind)
	putStr(out, "title", r.Title)
	putInt(out, "height", r.Height)
	putInt(out, "width", r.Width)
	putStr(out, "renditionDocumentId", r.RenditionDocumentID)
	writeExtensions(out, r.Extensions)
	return out
}
