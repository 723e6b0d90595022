package browser

import (
	"context"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/cmiserr"
	"github.com/content-interop/cmis-go/cmis/model"
)

// CheckOut creates a private working copy and writes its id into the in-out
// slot.
func (b *Binding) CheckOut(ctx context.Context, repositoryID string, objectID *string) (*model.ObjectData, error) {
	if objectID == nil || *objectID == "" {
		return nil, cmiserr.New(cmiserr.KindInvalidArgument, "object id is required")
	}
	ub, err := b.objectBuilder(ctx, repositoryID, *objectID, "")
	if err != nil {
		return nil, err
	}
	form := b.actionForm(cmis.ActionCheckOut)
	data, err := b.postForm(ctx, ub, form)
	if err != nil {
		return nil, err
	}
	pwc, err := b.decodeObjectBody(ctx, repositoryID, data)
	if err != nil {
		return nil, err
	}
	writeBack(pwc, objectID, nil)
	return pwc, nil
}

// CancelCheckOut discards a private working copy.
func (b *Binding) CancelCheckOut(ctx context.Context, repositoryID, objectID string) error {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, "")
	if err != nil {
		return err
	}
	form := b.actionForm(cmis.ActionCancelCheckOut)
	_, err = b.postForm(ctx, ub, form)
	return err
}

// CheckInOptions carry the optional arguments of a check-in.
type CheckInOptions struct {
	Properties *model.Properties
	Content    *model.ContentStream
	Comment    string
	Policies   []string
	AddACEs    *model.Acl
	RemoveACEs *model.Acl
}

// CheckIn turns a private working copy into a new version. The in-out
// objectID slot receives the id of the new version.
func (b *Binding) CheckIn(ctx context.Context, repositoryID string, objectID *string, major *bool, opts *CheckInOptions) (*model.ObjectData, error) {
	if objectID == nil || *objectID == "" {
		return nil, cmiserr.New(cmiserr.KindInvalidArgument, "object id is required")
	}
	ub, err := b.objectBuilder(ctx, repositoryID, *objectID, "")
	if err != nil {
		return nil, err
	}
	form := b.actionForm(cmis.ActionCheckIn)
	setParam(form, cmis.ParamMajor, major)

	var content *model.ContentStream
	if opts != nil {
		b.addProperties(form, opts.Properties)
		if opts.Comment != "" {
			form.Set("checkinComment", opts.Comment)
		}
		addPolicies(form, opts.Policies)
		addACEs(form, "add", opts.AddACEs)
		addACEs(form, "remove", opts.RemoveACEs)
		content = opts.Content
	}

	var data []byte
	if content != nil && content.Reader != nil {
		data, err = b.postMultipart(ctx, ub, form, content)
	} else {
		data, err = b.postForm(ctx, ub, form)
	}
	if err != nil {
		return nil, err
	}
	version, err := b.decodeObjectBody(ctx, repositoryID, data)
	if err != nil {
		return nil, err
	}
	writeBack(version, objectID, nil)
	return version, nil
}

// GetObjectOfLatestVersion reads the latest (optionally latest-major)
// version of the series the object belongs to.
func (b *Binding) GetObjectOfLatestVersion(ctx context.Context, repositoryID, objectID string, major bool, opts *ObjectOptions) (*model.ObjectData, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, cmis.SelectorObject)
	if err != nil {
		return nil, err
	}
	version := cmis.ReturnVersionLatest
	if major {
		version = cmis.ReturnVersionLatestMajor
	}
	ub.addParam(cmis.ParamReturnVersion, string(version))
	b.applyObjectOptions(ub, opts)
	b.applyNegotiation(ub)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	return b.decodeObjectBody(ctx, repositoryID, data)
}

// GetAllVersions lists every version of the series the object belongs to,
// newest first per the protocol's ordering.
func (b *Binding) GetAllVersions(ctx context.Context, repositoryID, objectID, filter string, includeAllowableActions *bool) ([]*model.ObjectData, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, cmis.SelectorVersions)
	if err != nil {
		return nil, err
	}
	if filter != "" {
		ub.addParam(cmis.ParamFilter, filter)
	}
	ub.addParam(cmis.ParamAllowableActions, includeAllowableActions)
	b.applyNegotiation(ub)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	list, err := b.codec.DecodeObjectList(ctx, data, b.newTypeResolver(repositoryID))
	if err != nil {
		return nil, decodeFailure(err)
	}
	return list.Objects, nil
}
