package browser

import (
	"context"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// RelationshipOptions refine a relationship listing.
type RelationshipOptions struct {
	IncludeSubRelationshipTypes *bool
	Direction                   cmis.RelationshipDirection
	TypeID                      string
	Filter                      string
	IncludeAllowableActions     *bool
	MaxItems                    *int64
	SkipCount                   *int64
}

// GetObjectRelationships lists the relationships an object participates in.
func (b *Binding) GetObjectRelationships(ctx context.Context, repositoryID, objectID string, opts *RelationshipOptions) (*model.ObjectList, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, cmis.SelectorRelationships)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		ub.addParam("includeSubRelationshipTypes", opts.IncludeSubRelationshipTypes)
		if opts.Direction != "" {
			ub.addParam("relationshipDirection", string(opts.Direction))
		}
		if opts.TypeID != "" {
			ub.addParam(cmis.ParamTypeID, opts.TypeID)
		}
		if opts.Filter != "" {
			ub.addParam(cmis.ParamFilter, opts.Filter)
		}
		ub.addParam(cmis.ParamAllowableActions, opts.IncludeAllowableActions)
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
