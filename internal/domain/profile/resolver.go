package profile

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// RepositoryResolver resolves identities straight from the profile store.
type RepositoryResolver struct {
	repo Repository
}

func NewRepositoryResolver(repo Repository) *RepositoryResolver {
	return &RepositoryResolver{repo: repo}
}

func (r *RepositoryResolver) Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Identity, error) {
	out := make(map[uuid.UUID]Identity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	profiles, err := r.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.ID] = IdentityOf(p)
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = Identity{UserID: id, Label: Placeholder(id)}
		}
	}
	return out, nil
}

// IdentityOf projects a profile onto its identity.
func IdentityOf(p *Profile) Identity {
	return Identity{
		UserID: p.ID,
		Label:  p.Label(),
		Handle: strings.TrimPrefix(trimmed(p.Handle), "@"),
	}
}

// ResolveOrPlaceholder resolves ids through r. On failure every id maps to its
// placeholder label and the error is returned alongside for logging.
func ResolveOrPlaceholder(ctx context.Context, r Resolver, ids []uuid.UUID) (map[uuid.UUID]Identity, error) {
	resolved, err := r.Resolve(ctx, ids)
	if err == nil {
		return resolved, nil
	}
	out := make(map[uuid.UUID]Identity, len(ids))
	for _, id := range ids {
		out[id] = Identity{UserID: id, Label: Placeholder(id)}
	}
	return out, err
}
