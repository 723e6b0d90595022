package browser

import (
	"context"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// GetAppliedPolicies lists the policies applied to an object.
func (b *Binding) GetAppliedPolicies(ctx context.Context, repositoryID, objectID, filter string) ([]*model.ObjectData, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, cmis.SelectorPolicies)
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
	list, err := b.codec.DecodeObjectList(ctx, data, b.newTypeResolver(repositoryID))
	if err != nil {
		return nil, decodeFailure(err)
	}
	return list.Objects, nil
}

// ApplyPolicy applies a policy to an object.
func (b *Binding) ApplyPolicy(ctx context.Context, repositoryID, objectID, policyID string) error {
	return b.postPolicy(ctx, repositoryID, objectID, policyID, cmis.ActionApplyPolicy)
}

// RemovePolicy removes an applied policy from an object.
func (b *Binding) RemovePolicy(ctx context.Context, repositoryID, objectID, policyID string) error {
	return b.postPolicy(ctx, repositoryID, objectID, policyID, cmis.ActionRemovePolicy)
}

func (b *Binding) postPolicy(ctx context.Context, repositoryID, objectID, policyID, action string) error {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, "")
	if err != nil {
		return err
	}
	form := b.actionForm(action)
	form.Set("policyId", policyID)
	_, err = b.postForm(ctx, ub, form)
	return err
}
