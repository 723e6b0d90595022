package browser

import (
	"context"
	"errors"
	"log/slog"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/jsoncodec"
	"github.com/content-interop/cmis-go/cmis/model"
	"github.com/content-interop/cmis-go/cmis/typecache"
	"github.com/content-interop/cmis-go/internal/platform/logutil"
)

// callTypeResolver is the per-call type cache. One instance exists per
// top-level operation, bound to one repository, and is never shared, so the
// local memos need no locking. Misses consult the externally owned
// long-lived cache, then fetch and populate it. Failed lookups are memoized
// too: succinct decoding probes the same type ids once per property key, and
// a type the repository doesn't know will not appear mid-call.
type callTypeResolver struct {
	binding      *Binding
	repositoryID string
	logger       *slog.Logger
	local        map[string]*model.TypeDefinition
	failed       map[string]error
}

func (b *Binding) newTypeResolver(repositoryID string) *callTypeResolver {
	return &callTypeResolver{
		binding:      b,
		repositoryID: repositoryID,
		logger:       logutil.WithRepo(b.logger, repositoryID),
		local:        make(map[string]*model.TypeDefinition),
		failed:       make(map[string]error),
	}
}

func (r *callTypeResolver) TypeDefinition(ctx context.Context, typeID string) (*model.TypeDefinition, error) {
	if def, ok := r.local[typeID]; ok {
		return def, nil
	}
	if err, ok := r.failed[typeID]; ok {
		return nil, err
	}
	if store := r.binding.types; store != nil {
		def, err := store.Get(ctx, r.repositoryID, typeID)
		if err == nil {
			r.local[typeID] = def
			return def, nil
		}
		if !errors.Is(err, typecache.ErrNotFound) {
			r.logger.Warn("type cache lookup failed", "type", typeID, "error", err)
		}
	}
	return r.fetch(ctx, typeID)
}

// ReloadTypeDefinition fetches past the long-lived cache, overwriting it.
// Used when a cached definition is suspected stale. A fetch that already
// failed this call is not repeated.
func (r *callTypeResolver) ReloadTypeDefinition(ctx context.Context, typeID string) (*model.TypeDefinition, error) {
	if err, ok := r.failed[typeID]; ok {
		return nil, err
	}
	return r.fetch(ctx, typeID)
}

func (r *callTypeResolver) fetch(ctx context.Context, typeID string) (*model.TypeDefinition, error) {
	def, err := r.binding.fetchTypeDefinition(ctx, r.repositoryID, typeID)
	if err != nil {
		r.failed[typeID] = err
		return nil, err
	}
	r.local[typeID] = def
	if store := r.binding.types; store != nil {
		if err := store.Put(ctx, r.repositoryID, def); err != nil {
			r.logger.Warn("type cache population failed", "type", typeID, "error", err)
		}
	}
	return def, nil
}

var _ jsoncodec.TypeResolver = (*callTypeResolver)(nil)

// fetchTypeDefinition reads one type definition from the repository.
func (b *Binding) fetchTypeDefinition(ctx context.Context, repositoryID, typeID string) (*model.TypeDefinition, error) {
	ub, err := b.repositoryBuilder(ctx, repositoryID, cmis.SelectorTypeDefinition)
	if err != nil {
		return nil, err
	}
	ub.addParam(cmis.ParamTypeID, typeID)
	data, err := b.get(ctx, ub)
	if err != nil {
		return nil, err
	}
	def, err := b.codec.DecodeTypeDefinition(data)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return def, nil
}
