package browser

import (
	"context"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// QueryOptions refine a query execution.
type QueryOptions struct {
	SearchAllVersions       *bool
	IncludeAllowableActions *bool
	IncludeRelationships    cmis.IncludeRelationships
	RenditionFilter         string
	MaxItems                *int64
	SkipCount               *int64
}

// Query executes a CMIS query statement. The statement rides in the POST
// form, so its length is not bounded by URL limits.
func (b *Binding) Query(ctx context.Context, repositoryID, statement string, opts *QueryOptions) (*model.ObjectList, error) {
	ub, err := b.repositoryBuilder(ctx, repositoryID, "")
	if err != nil {
		return nil, err
	}
	form := b.actionForm(cmis.ActionQuery)
	form.Set(cmis.ParamStatement, statement)
	if opts != nil {
		setParam(form, cmis.ParamSearchAllVersions, opts.SearchAllVersions)
		setParam(form, cmis.ParamAllowableActions, opts.IncludeAllowableActions)
		if opts.IncludeRelationships != "" {
			form.Set(cmis.ParamRelationships, string(opts.IncludeRelationships))
		}
		if opts.RenditionFilter != "" {
			form.Set(cmis.ParamRenditionFilter, opts.RenditionFilter)
		}
		setParam(form, cmis.ParamMaxItems, opts.MaxItems)
		setParam(form, cmis.ParamSkipCount, opts.SkipCount)
	}
	data, err := b.postForm(ctx, ub, form)
	if err != nil {
		return nil, err
	}
	list, err := b.codec.DecodeQueryResultList(ctx, data, b.newTypeResolver(repositoryID))
	if err != nil {
		return nil, decodeFailure(err)
	}
	return list, nil
}

// ChangesOptions refine a change-log read.
type ChangesOptions struct {
	IncludeProperties *bool
	IncludePolicyIDs  *bool
	IncludeACL        *bool
	Filter            string
	MaxItems          *int64
}

// GetContentChanges reads the change log from changeLogToken onward. The
// in-out token slot receives the token to resume from next call.
func (b *Binding) GetContentChanges(ctx context.Context, repositoryID string, changeLogToken *string, opts *ChangesOptions) (*model.ObjectList, error) {
	ub, err := b.repositoryBuilder(ctx, repositoryID, cmis.SelectorContentChanges)
	if err != nil {
		return nil, err
	}
	if changeLogToken != nil && *changeLogToken != "" {
		ub.addParam(cmis.ParamChangeLogToken, *changeLogToken)
	}
	if opts != nil {
		ub.addParam(cmis.ParamIncludeProperties, opts.IncludeProperties)
		ub.addParam(cmis.ParamPolicyIDs, opts.IncludePolicyIDs)
		ub.addParam(cmis.ParamACL, opts.IncludeACL)
		if opts.Filter != "" {
			ub.addParam(cmis.ParamFilter, opts.Filter)
		}
		ub.addParam(cmis.ParamMaxItems, opts.MaxItems)
	}
	b.applyNegotiation(ub)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	list, nextToken, err := b.codec.DecodeContentChanges(ctx, data, b.newTypeResolver(repositoryID))
	if err != nil {
		return nil, decodeFailure(err)
	}
	if changeLogToken != nil {
		*changeLogToken = nextToken
	}
	return list, nil
}
