package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/cmiserr"
	"github.com/content-interop/cmis-go/cmis/model"
	"github.com/content-interop/cmis-go/internal/platform/mimeutil"
)

// GetObject reads one object by id.
func (b *Binding) GetObject(ctx context.Context, repositoryID, objectID string, opts *ObjectOptions) (*model.ObjectData, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, cmis.SelectorObject)
	if err != nil {
		return nil, err
	}
	b.applyObjectOptions(ub, opts)
	b.applyNegotiation(ub)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	return b.decodeObjectBody(ctx, repositoryID, data)
}

// GetObjectByPath reads one object by repository path.
func (b *Binding) GetObjectByPath(ctx context.Context, repositoryID, path string, opts *ObjectOptions) (*model.ObjectData, error) {
	ub, err := b.pathBuilder(ctx, repositoryID, path, cmis.SelectorObject)
	if err != nil {
		return nil, err
	}
	b.applyObjectOptions(ub, opts)
	b.applyNegotiation(ub)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	return b.decodeObjectBody(ctx, repositoryID, data)
}

// GetAllowableActions reads the allowable actions of an object.
func (b *Binding) GetAllowableActions(ctx context.Context, repositoryID, objectID string) (*model.AllowableActions, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, cmis.SelectorAllowableActs)
	if err != nil {
		return nil, err
	}
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	aa, err := b.codec.DecodeAllowableActions(data)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return aa, nil
}

// GetRenditions lists the renditions of an object.
func (b *Binding) GetRenditions(ctx context.Context, repositoryID, objectID, renditionFilter string, maxItems, skipCount *int64) ([]*model.Rendition, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, cmis.SelectorRenditions)
	if err != nil {
		return nil, err
	}
	if renditionFilter != "" {
		ub.addParam(cmis.ParamRenditionFilter, renditionFilter)
	}
	ub.addParam(cmis.ParamMaxItems, maxItems)
	ub.addParam(cmis.ParamSkipCount, skipCount)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	renditions, err := b.codec.DecodeRenditions(data)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return renditions, nil
}

// GetContentStream downloads document content, or a rendition when streamID
// is set. A non-nil offset requests a byte range; a 206 response marks the
// stream partial. The caller owns the reader.
func (b *Binding) GetContentStream(ctx context.Context, repositoryID, objectID, streamID string, offset, length *int64) (*model.ContentStream, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, cmis.SelectorContent)
	if err != nil {
		return nil, err
	}
	if streamID != "" {
		ub.addParam(cmis.ParamStreamID, streamID)
	}
	req, err := b.newRequest(ctx, http.MethodGet, ub.String(), nil)
	if err != nil {
		return nil, err
	}
	if offset != nil {
		if length != nil && *length > 0 {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", *offset, *offset+*length-1))
		} else {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-", *offset))
		}
	}
	resp, err := b.transport.Do(req)
	if err != nil {
		return nil, cmiserr.Connection("request failed", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		defer resp.Body.Close()
		return nil, b.mapFailure(resp)
	}

	cs := &model.ContentStream{
		MimeType: resp.Header.Get("Content-Type"),
		Length:   -1,
		Partial:  resp.StatusCode == http.StatusPartialContent,
		Reader:   resp.Body,
	}
	if resp.ContentLength >= 0 {
		cs.Length = resp.ContentLength
	}
	cs.Filename = mimeutil.DispositionFilename(resp.Header.Get("Content-Disposition"))
	return cs, nil
}

// CreateOptions carry the optional arguments of create-style operations.
type CreateOptions struct {
	Policies   []string
	AddACEs    *model.Acl
	RemoveACEs *model.Acl
}

func applyCreateOptions(form url.Values, opts *CreateOptions) {
	if opts == nil {
		return
	}
	addPolicies(form, opts.Policies)
	addACEs(form, "add", opts.AddACEs)
	addACEs(form, "remove", opts.RemoveACEs)
}

// CreateDocument creates a document, optionally with content, and returns
// the new object id.
func (b *Binding) CreateDocument(ctx context.Context, repositoryID, folderID string, props *model.Properties, content *model.ContentStream, versioningState cmis.VersioningState, opts *CreateOptions) (string, error) {
	var ub *urlBuilder
	var err error
	if folderID == "" {
		// Unfiled create goes against the repository URL.
		ub, err = b.repositoryBuilder(ctx, repositoryID, "")
	} else {
		ub, err = b.objectBuilder(ctx, repositoryID, folderID, "")
	}
	if err != nil {
		return "", err
	}
	form := b.actionForm(cmis.ActionCreateDocument)
	b.addProperties(form, props)
	if versioningState != "" {
		form.Set(cmis.ParamVersioningState, string(versioningState))
	}
	applyCreateOptions(form, opts)

	var data []byte
	if content != nil && content.Reader != nil {
		data, err = b.postMultipart(ctx, ub, form, content)
	} else {
		data, err = b.postForm(ctx, ub, form)
	}
	if err != nil {
		return "", err
	}
	obj, err := b.decodeObjectBody(ctx, repositoryID, data)
	if err != nil {
		return "", err
	}
	return objectIDOf(obj)
}

// CreateFolder creates a folder and returns the new object id.
func (b *Binding) CreateFolder(ctx context.Context, repositoryID, parentFolderID string, props *model.Properties, opts *CreateOptions) (string, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, parentFolderID, "")
	if err != nil {
		return "", err
	}
	form := b.actionForm(cmis.ActionCreateFolder)
	b.addProperties(form, props)
	applyCreateOptions(form, opts)
	data, err := b.postForm(ctx, ub, form)
	if err != nil {
		return "", err
	}
	obj, err := b.decodeObjectBody(ctx, repositoryID, data)
	if err != nil {
		return "", err
	}
	return objectIDOf(obj)
}

// CreateRelationship creates a relationship; source and target ids ride in
// the property bag.
func (b *Binding) CreateRelationship(ctx context.Context, repositoryID string, props *model.Properties, opts *CreateOptions) (string, error) {
	ub, err := b.repositoryBuilder(ctx, repositoryID, "")
	if err != nil {
		return "", err
	}
	form := b.actionForm(cmis.ActionCreateRelationship)
	b.addProperties(form, props)
	applyCreateOptions(form, opts)
	data, err := b.postForm(ctx, ub, form)
	if err != nil {
		return "", err
	}
	obj, err := b.decodeObjectBody(ctx, repositoryID, data)
	if err != nil {
		return "", err
	}
	return objectIDOf(obj)
}

// CreatePolicy creates a policy object in a folder.
func (b *Binding) CreatePolicy(ctx context.Context, repositoryID, folderID string, props *model.Properties, opts *CreateOptions) (string, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, folderID, "")
	if err != nil {
		return "", err
	}
	form := b.actionForm(cmis.ActionCreatePolicy)
	b.addProperties(form, props)
	applyCreateOptions(form, opts)
	data, err := b.postForm(ctx, ub, form)
	if err != nil {
		return "", err
	}
	obj, err := b.decodeObjectBody(ctx, repositoryID, data)
	if err != nil {
		return "", err
	}
	return objectIDOf(obj)
}

// CreateItem creates an item object. Items exist from CMIS 1.1 onward.
func (b *Binding) CreateItem(ctx context.Context, repositoryID, folderID string, props *model.Properties, opts *CreateOptions) (string, error) {
	if !b.codec.Version.SupportsItems() && b.codec.Version != "" {
		return "", cmiserr.New(cmiserr.KindInvalidArgument, "item objects require CMIS 1.1")
	}
	var ub *urlBuilder
	var err error
	if folderID == "" {
		ub, err = b.repositoryBuilder(ctx, repositoryID, "")
	} else {
		ub, err = b.objectBuilder(ctx, repositoryID, folderID, "")
	}
	if err != nil {
		return "", err
	}
	form := b.actionForm(cmis.ActionCreateItem)
	b.addProperties(form, props)
	applyCreateOptions(form, opts)
	data, err := b.postForm(ctx, ub, form)
	if err != nil {
		return "", err
	}
	obj, err := b.decodeObjectBody(ctx, repositoryID, data)
	if err != nil {
		return "", err
	}
	return objectIDOf(obj)
}

// UpdateProperties updates properties. objectID and changeToken are in-out:
// the repository may assign a new id (versioning repositories) and a new
// change token, which are written back before returning.
func (b *Binding) UpdateProperties(ctx context.Context, repositoryID string, objectID *string, changeToken *string, props *model.Properties) (*model.ObjectData, error) {
	if objectID == nil || *objectID == "" {
		return nil, cmiserr.New(cmiserr.KindInvalidArgument, "object id is required")
	}
	ub, err := b.objectBuilder(ctx, repositoryID, *objectID, "")
	if err != nil {
		return nil, err
	}
	form := b.actionForm(cmis.ActionUpdateProperties)
	b.addProperties(form, props)
	if changeToken != nil && *changeToken != "" {
		form.Set("changeToken", *changeToken)
	}
	data, err := b.postForm(ctx, ub, form)
	if err != nil {
		return nil, err
	}
	obj, err := b.decodeObjectBody(ctx, repositoryID, data)
	if err != nil {
		return nil, err
	}
	writeBack(obj, objectID, changeToken)
	return obj, nil
}

// writeBack propagates the server-assigned id and change token into the
// caller's in-out slots.
func writeBack(obj *model.ObjectData, objectID, changeToken *string) {
	if id := obj.ID(); id != "" && objectID != nil {
		*objectID = id
	}
	if changeToken != nil {
		*changeToken = obj.ChangeToken()
	}
}

// MoveObject moves an object between folders and returns its
// possibly-renewed id via the in-out slot.
func (b *Binding) MoveObject(ctx context.Context, repositoryID string, objectID *string, targetFolderID, sourceFolderID string) (*model.ObjectData, error) {
	if objectID == nil || *objectID == "" {
		return nil, cmiserr.New(cmiserr.KindInvalidArgument, "object id is required")
	}
	ub, err := b.objectBuilder(ctx, repositoryID, *objectID, "")
	if err != nil {
		return nil, err
	}
	form := b.actionForm(cmis.ActionMove)
	form.Set(cmis.ParamTargetFolderID, targetFolderID)
	form.Set(cmis.ParamSourceFolderID, sourceFolderID)
	data, err := b.postForm(ctx, ub, form)
	if err != nil {
		return nil, err
	}
	obj, err := b.decodeObjectBody(ctx, repositoryID, data)
	if err != nil {
		return nil, err
	}
	writeBack(obj, objectID, nil)
	return obj, nil
}

// DeleteObject deletes an object; allVersions nil lets the repository
// default (all versions for documents).
func (b *Binding) DeleteObject(ctx context.Context, repositoryID, objectID string, allVersions *bool) error {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, "")
	if err != nil {
		return err
	}
	form := b.actionForm(cmis.ActionDelete)
	setParam(form, cmis.ParamAllVersions, allVersions)
	_, err = b.postForm(ctx, ub, form)
	return err
}

// DeleteTree deletes a folder subtree. A partial failure returns the ids
// that survived, not an error.
func (b *Binding) DeleteTree(ctx context.Context, repositoryID, folderID string, allVersions *bool, unfileObjects cmis.UnfileObject, continueOnFailure *bool) (*model.FailedToDelete, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, folderID, "")
	if err != nil {
		return nil, err
	}
	form := b.actionForm(cmis.ActionDeleteTree)
	setParam(form, cmis.ParamAllVersions, allVersions)
	if unfileObjects != "" {
		form.Set(cmis.ParamUnfileObjects, string(unfileObjects))
	}
	setParam(form, cmis.ParamContinueOnFailure, continueOnFailure)
	data, err := b.postForm(ctx, ub, form)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return &model.FailedToDelete{}, nil
	}
	failed, err := b.codec.DecodeFailedToDelete(data)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return failed, nil
}

// SetContentStream replaces document content. objectID and changeToken are
// in-out slots.
func (b *Binding) SetContentStream(ctx context.Context, repositoryID string, objectID *string, changeToken *string, content *model.ContentStream, overwrite *bool) error {
	return b.postContent(ctx, repositoryID, objectID, changeToken, content, cmis.ActionSetContent, func(form url.Values) {
		setParam(form, cmis.ParamOverwriteFlag, overwrite)
	})
}

// AppendContentStream appends a chunk to document content; isLastChunk
// marks the final append.
func (b *Binding) AppendContentStream(ctx context.Context, repositoryID string, objectID *string, changeToken *string, content *model.ContentStream, isLastChunk bool) error {
	return b.postContent(ctx, repositoryID, objectID, changeToken, content, cmis.ActionAppendContent, func(form url.Values) {
		setParam(form, cmis.ParamIsLastChunk, isLastChunk)
	})
}

// DeleteContentStream removes document content.
func (b *Binding) DeleteContentStream(ctx context.Context, repositoryID string, objectID *string, changeToken *string) error {
	return b.postContent(ctx, repositoryID, objectID, changeToken, nil, cmis.ActionDeleteContent, nil)
}

func (b *Binding) postContent(ctx context.Context, repositoryID string, objectID, changeToken *string, content *model.ContentStream, action string, extra func(url.Values)) error {
	if objectID == nil || *objectID == "" {
		return cmiserr.New(cmiserr.KindInvalidArgument, "object id is required")
	}
	ub, err := b.objectBuilder(ctx, repositoryID, *objectID, "")
	if err != nil {
		return err
	}
	form := b.actionForm(action)
	if changeToken != nil && *changeToken != "" {
		form.Set("changeToken", *changeToken)
	}
	if extra != nil {
		extra(form)
	}
	var data []byte
	if content != nil && content.Reader != nil {
		data, err = b.postMultipart(ctx, ub, form, content)
	} else {
		data, err = b.postForm(ctx, ub, form)
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	obj, err := b.decodeObjectBody(ctx, repositoryID, data)
	if err != nil {
		return err
	}
	writeBack(obj, objectID, changeToken)
	return nil
}
