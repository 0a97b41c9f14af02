package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type roleDocument struct {
	ID        string    `firestore:"id"`
	Name      string    `firestore:"name"`
	Subdomain string    `firestore:"subdomain"`
	Timezone  string    `firestore:"timezone"`
	AccountID string    `firestore:"account_id"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`

	CalendarID            string    `firestore:"calendar_id"`
	CalendarName          string    `firestore:"calendar_name"`
	SyncDirection         string    `firestore:"sync_direction"`
	WebhookSubscriptionID string    `firestore:"webhook_subscription_id"`
	WebhookExpiresAt      time.Time `firestore:"webhook_expires_at"`
}

type roleRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRoleRepository(client *firestore.Client) *roleRepository {
	return &roleRepository{client: client}
}

func (r *roleRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_roles"
	}
	return "roles"
}

func roleToDocument(role *model.Role) *roleDocument {
	return &roleDocument{
		ID:                    string(role.ID),
		Name:                  role.Name,
		Subdomain:             role.Subdomain,
		Timezone:              role.Timezone,
		AccountID:             string(role.AccountID),
		CreatedAt:             role.CreatedAt,
		UpdatedAt:             role.UpdatedAt,
		CalendarID:            role.CalendarBinding.CalendarID,
		CalendarName:          role.CalendarBinding.CalendarName,
		SyncDirection:         string(role.CalendarBinding.Direction),
		WebhookSubscriptionID: role.CalendarBinding.WebhookSubscriptionID,
		WebhookExpiresAt:      role.CalendarBinding.WebhookExpiresAt,
	}
}

func roleToModel(doc *roleDocument) *model.Role {
	return &model.Role{
		ID:        types.RoleID(doc.ID),
		Name:      doc.Name,
		Subdomain: doc.Subdomain,
		Timezone:  doc.Timezone,
		AccountID: types.AccountID(doc.AccountID),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		CalendarBinding: model.CalendarBinding{
			CalendarID:            doc.CalendarID,
			CalendarName:          doc.CalendarName,
			Direction:             types.SyncDirection(doc.SyncDirection),
			WebhookSubscriptionID: doc.WebhookSubscriptionID,
			WebhookExpiresAt:      doc.WebhookExpiresAt,
		},
	}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) (*model.Role, error) {
	now := time.Now().UTC()
	created := *role
	if created.ID == "" {
		created.ID = types.NewRoleID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := created.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid role")
	}

	docRef := r.client.Collection(r.collection()).Doc(string(created.ID))
	if _, err := docRef.Set(ctx, roleToDocument(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create role", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *roleRepository) Get(ctx context.Context, id types.RoleID) (*model.Role, error) {
	doc, err := r.client.Collection(r.collection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "role not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get role", goerr.V("id", id))
	}

	var d roleDocument
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal role", goerr.V("id", id))
	}

	return roleToModel(&d), nil
}

func (r *roleRepository) GetBySubdomain(ctx context.Context, subdomain string) (*model.Role, error) {
	iter := r.client.Collection(r.collection()).
		Where("subdomain", "==", subdomain).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(ErrNotFound, "role not found", goerr.V("subdomain", subdomain))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query role", goerr.V("subdomain", subdomain))
	}

	var d roleDocument
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal role")
	}

	return roleToModel(&d), nil
}

func (r *roleRepository) ListByAccount(ctx context.Context, accountID types.AccountID) ([]*model.Role, error) {
	iter := r.client.Collection(r.collection()).
		Where("account_id", "==", string(accountID)).
		OrderBy("subdomain", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var roles []*model.Role
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list roles", goerr.V("account_id", accountID))
		}

		var d roleDocument
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal role")
		}
		roles = append(roles, roleToModel(&d))
	}

	return roles, nil
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	if err := role.Validate(); err != nil {
		return goerr.Wrap(err, "invalid role")
	}

	docRef := r.client.Collection(r.collection()).Doc(string(role.ID))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "role not found", goerr.V("id", role.ID))
		}
		return goerr.Wrap(err, "failed to get role", goerr.V("id", role.ID))
	}

	var existing roleDocument
	if err := doc.DataTo(&existing); err != nil {
		return goerr.Wrap(err, "failed to unmarshal role", goerr.V("id", role.ID))
	}

	updated := *role
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, roleToDocument(&updated)); err != nil {
		return goerr.Wrap(err, "failed to update role", goerr.V("id", role.ID))
	}

	return nil
}

func (r *roleRepository) Delete(ctx context.Context, id types.RoleID) error {
	docRef := r.client.Collection(r.collection()).Doc(string(id))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "role not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get role", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete role", goerr.V("id", id))
	}

	return nil
}
