package browser

import (
	"context"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// ObjectOptions are the read options shared by object-returning operations.
// Nil pointers mean "let the repository default".
type ObjectOptions struct {
	Filter                  string
	IncludeAllowableActions *bool
	IncludeRelationships    cmis.IncludeRelationships
	RenditionFilter         string
	IncludePolicyIDs        *bool
	IncludeACL              *bool
}

func (b *Binding) applyObjectOptions(ub *urlBuilder, opts *ObjectOptions) {
	if opts == nil {
		return
	}
	if opts.Filter != "" {
		ub.addParam(cmis.ParamFilter, opts.Filter)
	}
	ub.addParam(cmis.ParamAllowableActions, opts.IncludeAllowableActions)
	if opts.IncludeRelationships != "" {
		ub.addParam(cmis.ParamRelationships, string(opts.IncludeRelationships))
	}
	if opts.RenditionFilter != "" {
		ub.addParam(cmis.ParamRenditionFilter, opts.RenditionFilter)
	}
	ub.addParam(cmis.ParamPolicyIDs, opts.IncludePolicyIDs)
	ub.addParam(cmis.ParamACL, opts.IncludeACL)
}

// applyNegotiation attaches the session's succinct and date-time-format
// preferences to a read URL.
func (b *Binding) applyNegotiation(ub *urlBuilder) {
	if b.succinct {
		ub.addParam(cmis.ParamSuccinct, true)
	}
	if b.dtFormat != "" {
		ub.addParam(cmis.ParamDateTimeFormat, string(b.dtFormat))
	}
}

// ChildrenOptions refine a folder-children listing.
type ChildrenOptions struct {
	ObjectOptions
	OrderBy            string
	IncludePathSegment *bool
	MaxItems           *int64
	SkipCount          *int64
}

// GetChildren lists the direct children of a folder.
func (b *Binding) GetChildren(ctx context.Context, repositoryID, folderID string, opts *ChildrenOptions) (*model.ObjectInFolderList, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, folderID, cmis.SelectorChildren)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		b.applyObjectOptions(ub, &opts.ObjectOptions)
		if opts.OrderBy != "" {
			ub.addParam(cmis.ParamOrderBy, opts.OrderBy)
		}
		ub.addParam(cmis.ParamPathSegment, opts.IncludePathSegment)
		ub.addParam(cmis.ParamMaxItems, opts.MaxItems)
		ub.addParam(cmis.ParamSkipCount, opts.SkipCount)
	}
	b.applyNegotiation(ub)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	list, err := b.codec.DecodeChildren(ctx, data, b.newTypeResolver(repositoryID))
	if err != nil {
		return nil, decodeFailure(err)
	}
	return list, nil
}

// TreeOptions refine a descendants or folder-tree read.
type TreeOptions struct {
	ObjectOptions
	Depth              *int64
	IncludePathSegment *bool
}

// GetDescendants reads the subtree below a folder, documents included.
func (b *Binding) GetDescendants(ctx context.Context, repositoryID, folderID string, opts *TreeOptions) ([]*model.ObjectInFolderContainer, error) {
	return b.getTree(ctx, repositoryID, folderID, cmis.SelectorDescendants, opts)
}

// GetFolderTree reads the subtree below a folder, folders only.
func (b *Binding) GetFolderTree(ctx context.Context, repositoryID, folderID string, opts *TreeOptions) ([]*model.ObjectInFolderContainer, error) {
	return b.getTree(ctx, repositoryID, folderID, cmis.SelectorFolderTree, opts)
}

func (b *Binding) getTree(ctx context.Context, repositoryID, folderID, selector string, opts *TreeOptions) ([]*model.ObjectInFolderContainer, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, folderID, selector)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		b.applyObjectOptions(ub, &opts.ObjectOptions)
		ub.addParam(cmis.ParamDepth, opts.Depth)
		ub.addParam(cmis.ParamPathSegment, opts.IncludePathSegment)
	}
	b.applyNegotiation(ub)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	containers, err := b.codec.DecodeDescendants(ctx, data, b.newTypeResolver(repositoryID))
	if err != nil {
		return nil, decodeFailure(err)
	}
	return containers, nil
}

// GetFolderParent reads the parent folder of a folder.
func (b *Binding) GetFolderParent(ctx context.Context, repositoryID, folderID, filter string) (*model.ObjectData, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, folderID, cmis.SelectorParent)
	if err != nil {
		return nil, err
	}
	if filter != "" {
		ub.addParam(cmis.ParamFilter, filter)
	}
	b.applyNegotiation(ub)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	return b.decodeObjectBody(ctx, repositoryID, data)
}

// ParentsOptions refine an object-parents read.
type ParentsOptions struct {
	ObjectOptions
	IncludeRelativePathSegment *bool
}

// GetObjectParents lists the parent folders of a fileable object.
func (b *Binding) GetObjectParents(ctx context.Context, repositoryID, objectID string, opts *ParentsOptions) ([]*model.ObjectParentData, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, cmis.SelectorParents)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		b.applyObjectOptions(ub, &opts.ObjectOptions)
		ub.addParam(cmis.ParamRelativePathSegment, opts.IncludeRelativePathSegment)
	}
	b.applyNegotiation(ub)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	parents, err := b.codec.DecodeObjectParents(ctx, data, b.newTypeResolver(repositoryID))
	if err != nil {
		return nil, decodeFailure(err)
	}
	return parents, nil
}

// CheckedOutOptions refine a checked-out-documents listing.
type CheckedOutOptions struct {
	ObjectOptions
	OrderBy   string
	MaxItems  *int64
	SkipCount *int64
}

// GetCheckedOutDocs lists the documents checked out in a folder, or in the
// whole repository when folderID is empty.
func (b *Binding) GetCheckedOutDocs(ctx context.Context, repositoryID, folderID string, opts *CheckedOutOptions) (*model.ObjectList, error) {
	var ub *urlBuilder
	var err error
	if folderID == "" {
		ub, err = b.repositoryBuilder(ctx, repositoryID, cmis.SelectorCheckedOut)
	} else {
		ub, err = b.objectBuilder(ctx, repositoryID, folderID, cmis.SelectorCheckedOut)
	}
	if err != nil {
		return nil, err
	}
	if opts != nil {
		b.applyObjectOptions(ub, &opts.ObjectOptions)
		if opts.OrderBy != "" {
			ub.addParam(cmis.ParamOrderBy, opts.OrderBy)
		}
		ub.addParam(cmis.ParamMaxItems, opts.MaxItems)
		ub.addParam(cmis.ParamSkipCount, opts.SkipCount)
	}
	b.applyNegotiation(ub)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	list, err := b.codec.DecodeObjectList(ctx, data, b.newTypeResolver(repositoryID))
	if err != nil {
		return nil, decodeFailure(err)
	}
	return list, nil
}
