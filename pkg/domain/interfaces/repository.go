package interfaces

import (
	"context"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	Account() AccountRepository
	Role() RoleRepository
	Event() EventRepository
	Link() LinkRepository

	Close() error
}

// AccountRepository persists platform accounts and their Microsoft credentials
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) (*model.Account, error)
	Get(ctx context.Context, id types.AccountID) (*model.Account, error)
	GetByMicrosoftID(ctx context.Context, microsoftID string) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, id types.AccountID) error
}

// RoleRepository persists organizing roles and their calendar bindings
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) (*model.Role, error)
	Get(ctx context.Context, id types.RoleID) (*model.Role, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*model.Role, error)
	ListByAccount(ctx context.Context, accountID types.AccountID) ([]*model.Role, error)
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id types.RoleID) error
}

// EventRepository persists platform events
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	Get(ctx context.Context, id types.EventID) (*model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id types.EventID) error
}

// LinkRepository is the registry of (event, role) join records and their
// remote calendar identity. Set operations on a pair whose join record does
// not exist fail with the repository's not-found error instead of creating a
// dangling mapping; the join record itself is owned by the domain model.
type LinkRepository interface {
	Create(ctx context.Context, link *model.EventRoleLink) (*model.EventRoleLink, error)
	Get(ctx context.Context, eventID types.EventID, roleID types.RoleID) (*model.EventRoleLink, error)
	ListByEvent(ctx context.Context, eventID types.EventID) ([]*model.EventRoleLink, error)
	ListByRole(ctx context.Context, roleID types.RoleID) ([]*model.EventRoleLink, error)
	SetRemoteEvent(ctx context.Context, eventID types.EventID, roleID types.RoleID, remoteEventID, changeKey string) error
	SetChangeKey(ctx context.Context, eventID types.EventID, roleID types.RoleID, changeKey string) error
	Delete(ctx context.Context, eventID types.EventID, roleID types.RoleID) error
	DeleteByEvent(ctx context.Context, eventID types.EventID) error
	DeleteByRole(ctx context.Context, roleID types.RoleID) error
}
