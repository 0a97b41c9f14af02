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

type linkDocument struct {
	EventID         string    `firestore:"event_id"`
	RoleID          string    `firestore:"role_id"`
	RemoteEventID   string    `firestore:"remote_event_id"`
	RemoteChangeKey string    `firestore:"remote_change_key"`
	CreatedAt       time.Time `firestore:"created_at"`
	UpdatedAt       time.Time `firestore:"updated_at"`
}

type linkRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newLinkRepository(client *firestore.Client) *linkRepository {
	return &linkRepository{client: client}
}

func (r *linkRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_event_role_links"
	}
	return "event_role_links"
}

// linkDocID builds the composite document ID for a pair. Both parts are
// UUIDs, so ":" cannot collide.
func linkDocID(eventID types.EventID, roleID types.RoleID) string {
	return string(eventID) + ":" + string(roleID)
}

func linkToDocument(link *model.EventRoleLink) *linkDocument {
	return &linkDocument{
		EventID:         string(link.EventID),
		RoleID:          string(link.RoleID),
		RemoteEventID:   link.RemoteEventID,
		RemoteChangeKey: link.RemoteChangeKey,
		CreatedAt:       link.CreatedAt,
		UpdatedAt:       link.UpdatedAt,
	}
}

func linkToModel(doc *linkDocument) *model.EventRoleLink {
	return &model.EventRoleLink{
		EventID:         types.EventID(doc.EventID),
		RoleID:          types.RoleID(doc.RoleID),
		RemoteEventID:   doc.RemoteEventID,
		RemoteChangeKey: doc.RemoteChangeKey,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}

func (r *linkRepository) Create(ctx context.Context, link *model.EventRoleLink) (*model.EventRoleLink, error) {
	if err := link.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid link")
	}

	now := time.Now().UTC()
	created := *link
	created.CreatedAt = now
	created.UpdatedAt = now

	docRef := r.client.Collection(r.collection()).Doc(linkDocID(created.EventID, created.RoleID))
	if _, err := docRef.Set(ctx, linkToDocument(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create link",
			goerr.V("event_id", created.EventID), goerr.V("role_id", created.RoleID))
	}

	return &created, nil
}

func (r *linkRepository) Get(ctx context.Context, eventID types.EventID, roleID types.RoleID) (*model.EventRoleLink, error) {
	doc, err := r.client.Collection(r.collection()).Doc(linkDocID(eventID, roleID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "link not found",
				goerr.V("event_id", eventID), goerr.V("role_id", roleID))
		}
		return nil, goerr.Wrap(err, "failed to get link",
			goerr.V("event_id", eventID), goerr.V("role_id", roleID))
	}

	var d linkDocument
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal link")
	}

	return linkToModel(&d), nil
}

// listWhere returns links in creation order, backed by the composite
// (field, created_at) index.
func (r *linkRepository) listWhere(ctx context.Context, field, value string) ([]*model.EventRoleLink, error) {
	iter := r.client.Collection(r.collection()).
		Where(field, "==", value).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var links []*model.EventRoleLink
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list links", goerr.V(field, value))
		}

		var d linkDocument
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal link")
		}
		links = append(links, linkToModel(&d))
	}

	return links, nil
}

func (r *linkRepository) ListByEvent(ctx context.Context, eventID types.EventID) ([]*model.EventRoleLink, error) {
	return r.listWhere(ctx, "event_id", string(eventID))
}

func (r *linkRepository) ListByRole(ctx context.Context, roleID types.RoleID) ([]*model.EventRoleLink, error) {
	return r.listWhere(ctx, "role_id", string(roleID))
}

func (r *linkRepository) SetRemoteEvent(ctx context.Context, eventID types.EventID, roleID types.RoleID, remoteEventID, changeKey string) error {
	docRef := r.client.Collection(r.collection()).Doc(linkDocID(eventID, roleID))

	updates := []firestore.Update{
		{Path: "remote_event_id", Value: remoteEventID},
		{Path: "remote_change_key", Value: changeKey},
		{Path: "updated_at", Value: time.Now().UTC()},
	}

	// Update fails with NotFound when the document does not exist, which is
	// exactly the no-auto-vivify contract the registry requires.
	if _, err := docRef.Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "cannot set remote event: link does not exist",
				goerr.V("event_id", eventID), goerr.V("role_id", roleID))
		}
		return goerr.Wrap(err, "failed to set remote event",
			goerr.V("event_id", eventID), goerr.V("role_id", roleID))
	}

	return nil
}

func (r *linkRepository) SetChangeKey(ctx context.Context, eventID types.EventID, roleID types.RoleID, changeKey string) error {
	link, err := r.Get(ctx, eventID, roleID)
	if err != nil {
		return err
	}
	if link.RemoteEventID == "" {
		return goerr.New("cannot set change key without remote event ID",
			goerr.V("event_id", eventID), goerr.V("role_id", roleID))
	}

	docRef := r.client.Collection(r.collection()).Doc(linkDocID(eventID, roleID))
	updates := []firestore.Update{
		{Path: "remote_change_key", Value: changeKey},
		{Path: "updated_at", Value: time.Now().UTC()},
	}

	if _, err := docRef.Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "cannot set change key: link does not exist",
				goerr.V("event_id", eventID), goerr.V("role_id", roleID))
		}
		return goerr.Wrap(err, "failed to set change key",
			goerr.V("event_id", eventID), goerr.V("role_id", roleID))
	}

	return nil
}

func (r *linkRepository) Delete(ctx context.Context, eventID types.EventID, roleID types.RoleID) error {
	docRef := r.client.Collection(r.collection()).Doc(linkDocID(eventID, roleID))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "link not found",
				goerr.V("event_id", eventID), goerr.V("role_id", roleID))
		}
		return goerr.Wrap(err, "failed to get link",
			goerr.V("event_id", eventID), goerr.V("role_id", roleID))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete link",
			goerr.V("event_id", eventID), goerr.V("role_id", roleID))
	}

	return nil
}

func (r *linkRepository) deleteWhere(ctx context.Context, field, value string) error {
	iter := r.client.Collection(r.collection()).
		Where(field, "==", value).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to query links for deletion", goerr.V(field, value))
		}

		if _, err := doc.Ref.Delete(ctx); err != nil {
			return goerr.Wrap(err, "failed to delete link", goerr.V(field, value))
		}
	}

	return nil
}

func (r *linkRepository) DeleteByEvent(ctx context.Context, eventID types.EventID) error {
	return r.deleteWhere(ctx, "event_id", string(eventID))
}

func (r *linkRepository) DeleteByRole(ctx context.Context, roleID types.RoleID) error {
	return r.deleteWhere(ctx, "role_id", string(roleID))
}
