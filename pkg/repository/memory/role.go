package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type roleRepository struct {
	mu    sync.RWMutex
	roles map[types.RoleID]*model.Role
}

func newRoleRepository() *roleRepository {
	return &roleRepository{
		roles: make(map[types.RoleID]*model.Role),
	}
}

// copyRole creates a deep copy of a role
func copyRole(role *model.Role) *model.Role {
	copied := *role
	return &copied
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) (*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyRole(role)
	if created.ID == "" {
		created.ID = types.NewRoleID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := created.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid role")
	}

	r.roles[created.ID] = created
	return copyRole(created), nil
}

func (r *roleRepository) Get(ctx context.Context, id types.RoleID) (*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, exists := r.roles[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "role not found", goerr.V("id", id))
	}

	return copyRole(role), nil
}

func (r *roleRepository) GetBySubdomain(ctx context.Context, subdomain string) (*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, role := range r.roles {
		if role.Subdomain == subdomain {
			return copyRole(role), nil
		}
	}

	return nil, goerr.Wrap(ErrNotFound, "role not found", goerr.V("subdomain", subdomain))
}

func (r *roleRepository) ListByAccount(ctx context.Context, accountID types.AccountID) ([]*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var roles []*model.Role
	for _, role := range r.roles {
		if role.AccountID == accountID {
			roles = append(roles, copyRole(role))
		}
	}
	sort.Slice(roles, func(i, j int) bool {
		return roles[i].Subdomain < roles[j].Subdomain
	})

	return roles, nil
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	if err := role.Validate(); err != nil {
		return goerr.Wrap(err, "invalid role")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.roles[role.ID]
	if !exists {
		return goerr.Wrap(ErrNotFound, "role not found", goerr.V("id", role.ID))
	}

	updated := copyRole(role)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.roles[role.ID] = updated

	return nil
}

func (r *roleRepository) Delete(ctx context.Context, id types.RoleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.roles[id]; !exists {
		return goerr.Wrap(ErrNotFound, "role not found", goerr.V("id", id))
	}

	delete(r.roles, id)
	return nil
}
