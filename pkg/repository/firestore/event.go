package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type eventDocument struct {
	ID            string    `firestore:"id"`
	Name          string    `firestore:"name"`
	Description   string    `firestore:"description"`
	StartsAt      time.Time `firestore:"starts_at"`
	DurationHours int       `firestore:"duration_hours"`
	VenueAddress  string    `firestore:"venue_address"`
	CreatedAt     time.Time `firestore:"created_at"`
	UpdatedAt     time.Time `firestore:"updated_at"`
}

type eventRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newEventRepository(client *firestore.Client) *eventRepository {
	return &eventRepository{client: client}
}

func (r *eventRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_events"
	}
	return "events"
}

func eventToDocument(event *model.Event) *eventDocument {
	return &eventDocument{
		ID:            string(event.ID),
		Name:          event.Name,
		Description:   event.Description,
		StartsAt:      event.StartsAt,
		DurationHours: event.DurationHours,
		VenueAddress:  event.VenueAddress,
		CreatedAt:     event.CreatedAt,
		UpdatedAt:     event.UpdatedAt,
	}
}

func eventToModel(doc *eventDocument) *model.Event {
	return &model.Event{
		ID:            types.EventID(doc.ID),
		Name:          doc.Name,
		Description:   doc.Description,
		StartsAt:      doc.StartsAt,
		DurationHours: doc.DurationHours,
		VenueAddress:  doc.VenueAddress,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	now := time.Now().UTC()
	created := *event
	if created.ID == "" {
		created.ID = types.NewEventID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := created.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid event")
	}

	docRef := r.client.Collection(r.collection()).Doc(string(created.ID))
	if _, err := docRef.Set(ctx, eventToDocument(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create event", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *eventRepository) Get(ctx context.Context, id types.EventID) (*model.Event, error) {
	doc, err := r.client.Collection(r.collection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "event not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get event", goerr.V("id", id))
	}

	var d eventDocument
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal event", goerr.V("id", id))
	}

	return eventToModel(&d), nil
}

func (r *eventRepository) Update(ctx context.Context, event *model.Event) error {
	if err := event.Validate(); err != nil {
		return goerr.Wrap(err, "invalid event")
	}

	docRef := r.client.Collection(r.collection()).Doc(string(event.ID))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "event not found", goerr.V("id", event.ID))
		}
		return goerr.Wrap(err, "failed to get event", goerr.V("id", event.ID))
	}

	var existing eventDocument
	if err := doc.DataTo(&existing); err != nil {
		return goerr.Wrap(err, "failed to unmarshal event", goerr.V("id", event.ID))
	}

	updated := *event
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, eventToDocument(&updated)); err != nil {
		return goerr.Wrap(err, "failed to update event", goerr.V("id", event.ID))
	}

	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id types.EventID) error {
	docRef := r.client.Collection(r.collection()).Doc(string(id))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "event not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get event", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete event", goerr.V("id", id))
	}

	return nil
}
