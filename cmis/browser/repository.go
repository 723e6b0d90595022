package browser

import (
	"context"
	"encoding/json"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/model"
)

// GetRepositoryInfos lists every repository the endpoint serves. The fetch
// populates the repository URL cache as a side effect.
func (b *Binding) GetRepositoryInfos(ctx context.Context) ([]*model.RepositoryInfo, error) {
	entries, err := b.discoverRepositories(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]*model.RepositoryInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, e.Info)
	}
	return infos, nil
}

// GetRepositoryInfo reads one repository's info document. Fresh base URLs
// in the response update the cache.
func (b *Binding) GetRepositoryInfo(ctx context.Context, repositoryID string) (*model.RepositoryInfo, error) {
	ub, err := b.repositoryBuilder(ctx, repositoryID, cmis.SelectorRepositoryInfo)
	if err != nil {
		return nil, err
	}
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	entry, err := b.codec.DecodeRepositoryInfo(data)
	if err != nil {
		return nil, decodeFailure(err)
	}
	if entry.RepositoryURL != "" && entry.RootFolderURL != "" {
		if err := b.urls.put(entry.Info.ID, entry.RepositoryURL, entry.RootFolderURL); err != nil {
			return nil, err
		}
	}
	return entry.Info, nil
}

// GetTypeDefinition reads one type definition. The external type cache is
// consulted first and populated on fetch.
func (b *Binding) GetTypeDefinition(ctx context.Context, repositoryID, typeID string) (*model.TypeDefinition, error) {
	return b.newTypeResolver(repositoryID).TypeDefinition(ctx, typeID)
}

// TypeChildrenOptions page a type-children listing.
type TypeChildrenOptions struct {
	IncludePropertyDefinitions *bool
	MaxItems                   *int64
	SkipCount                  *int64
}

// GetTypeChildren lists the direct subtypes of typeID, or the base types
// when typeID is empty.
func (b *Binding) GetTypeChildren(ctx context.Context, repositoryID, typeID string, opts *TypeChildrenOptions) (*model.TypeDefinitionList, error) {
	ub, err := b.repositoryBuilder(ctx, repositoryID, cmis.SelectorTypeChildren)
	if err != nil {
		return nil, err
	}
	if typeID != "" {
		ub.addParam(cmis.ParamTypeID, typeID)
	}
	if opts != nil {
		ub.addParam(cmis.ParamPropertyDefinitions, opts.IncludePropertyDefinitions)
		ub.addParam(cmis.ParamMaxItems, opts.MaxItems)
		ub.addParam(cmis.ParamSkipCount, opts.SkipCount)
	}
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	list, err := b.codec.DecodeTypeChildren(data)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return list, nil
}

// GetTypeDescendants reads the subtype tree below typeID (all base types
// when empty) down to depth, -1 meaning unlimited.
func (b *Binding) GetTypeDescendants(ctx context.Context, repositoryID, typeID string, depth *int64, includePropertyDefinitions *bool) ([]*model.TypeDefinitionContainer, error) {
	ub, err := b.repositoryBuilder(ctx, repositoryID, cmis.SelectorTypeDescendants)
	if err != nil {
		return nil, err
	}
	if typeID != "" {
		ub.addParam(cmis.ParamTypeID, typeID)
	}
	ub.addParam(cmis.ParamDepth, depth)
	ub.addParam(cmis.ParamPropertyDefinitions, includePropertyDefinitions)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	containers, err := b.codec.DecodeTypeDescendants(data)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return containers, nil
}

// CreateType creates a type definition and returns the repository's
// canonical version of it.
func (b *Binding) CreateType(ctx context.Context, repositoryID string, def *model.TypeDefinition) (*model.TypeDefinition, error) {
	return b.postType(ctx, repositoryID, cmis.ActionCreateType, def)
}

// UpdateType updates a mutable type definition and returns the result.
func (b *Binding) UpdateType(ctx context.Context, repositoryID string, def *model.TypeDefinition) (*model.TypeDefinition, error) {
	return b.postType(ctx, repositoryID, cmis.ActionUpdateType, def)
}

func (b *Binding) postType(ctx context.Context, repositoryID, action string, def *model.TypeDefinition) (*model.TypeDefinition, error) {
	ub, err := b.repositoryBuilder(ctx, repositoryID, "")
	if err != nil {
		return nil, err
	}
	wire, err := b.codec.EncodeTypeDefinition(def)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	form := b.actionForm(action)
	form.Set("type", string(payload))
	data, err := b.postForm(ctx, ub, form)
	if err != nil {
		return nil, err
	}
	created, err := b.codec.DecodeTypeDefinition(data)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return created, nil
}

// DeleteType deletes a type definition and evicts it from the external type
// cache.
func (b *Binding) DeleteType(ctx context.Context, repositoryID, typeID string) error {
	ub, err := b.repositoryBuilder(ctx, repositoryID, "")
	if err != nil {
		return err
	}
	form := b.actionForm(cmis.ActionDeleteType)
	form.Set(cmis.ParamTypeID, typeID)
	if _, err := b.postForm(ctx, ub, form); err != nil {
		return err
	}
	if b.types != nil {
		if err := b.types.Remove(ctx, repositoryID, typeID); err != nil {
			b.logger.Warn("type cache eviction failed",
				"repository", repositoryID, "type", typeID, "error", err)
		}
	}
	return nil
}
