package browser

import (
	"context"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// GetACL reads an object's access-control list.
func (b *Binding) GetACL(ctx context.Context, repositoryID, objectID string, onlyBasicPermissions *bool) (*model.Acl, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, cmis.SelectorACL)
	if err != nil {
		return nil, err
	}
	ub.addParam(cmis.ParamOnlyBasicPermissions, onlyBasicPermissions)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	acl, err := b.codec.DecodeACL(data)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return acl, nil
}

// ApplyACL adds and removes access-control entries and returns the
// resulting list.
func (b *Binding) ApplyACL(ctx context.Context, repositoryID, objectID string, add, remove *model.Acl, propagation cmis.AclPropagation) (*model.Acl, error) {
	ub, err := b.objectBuilder(ctx, repositoryID, objectID, "")
	if err != nil {
		return nil, err
	}
	form := b.actionForm(cmis.ActionApplyACL)
	addACEs(form, "add", add)
	addACEs(form, "remove", remove)
	if propagation != "" {
		form.Set(cmis.ParamACLPropagation, string(propagation))
	}
	data, err := b.postForm(ctx, ub, form)
	if err != nil {
		return nil, err
	}
	acl, err := b.codec.DecodeACL(data)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return acl, nil
}
