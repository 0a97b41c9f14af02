package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type eventRepository struct {
	mu     sync.RWMutex
	events map[types.EventID]*model.Event
}

func newEventRepository() *eventRepository {
	return &eventRepository{
		events: make(map[types.EventID]*model.Event),
	}
}

// copyEvent creates a deep copy of an event
func copyEvent(event *model.Event) *model.Event {
	copied := *event
	return &copied
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyEvent(event)
	if created.ID == "" {
		created.ID = types.NewEventID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := created.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid event")
	}

	r.events[created.ID] = created
	return copyEvent(created), nil
}

func (r *eventRepository) Get(ctx context.Context, id types.EventID) (*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, exists := r.events[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "event not found", goerr.V("id", id))
	}

	return copyEvent(event), nil
}

func (r *eventRepository) Update(ctx context.Context, event *model.Event) error {
	if err := event.Validate(); err != nil {
		return goerr.Wrap(err, "invalid event")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.events[event.ID]
	if !exists {
		return goerr.Wrap(ErrNotFound, "event not found", goerr.V("id", event.ID))
	}

	updated := copyEvent(event)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.events[event.ID] = updated

	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id types.EventID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[id]; !exists {
		return goerr.Wrap(ErrNotFound, "event not found", goerr.V("id", id))
	}

	delete(r.events, id)
	return nil
}
