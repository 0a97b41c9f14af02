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

type linkKey struct {
	eventID types.EventID
	roleID  types.RoleID
}

type linkRepository struct {
	mu    sync.RWMutex
	links map[linkKey]*model.EventRoleLink
}

func newLinkRepository() *linkRepository {
	return &linkRepository{
		links: make(map[linkKey]*model.EventRoleLink),
	}
}

// copyLink creates a deep copy of a link
func copyLink(link *model.EventRoleLink) *model.EventRoleLink {
	copied := *link
	return &copied
}

// sortLinks orders links by creation time, matching the firestore backend
func sortLinks(links []*model.EventRoleLink) {
	sort.Slice(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		}
		if links[i].EventID != links[j].EventID {
			return links[i].EventID < links[j].EventID
		}
		return links[i].RoleID < links[j].RoleID
	})
}

func (r *linkRepository) Create(ctx context.Context, link *model.EventRoleLink) (*model.EventRoleLink, error) {
	if err := link.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid link")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyLink(link)
	created.CreatedAt = now
	created.UpdatedAt = now

	r.links[linkKey{created.EventID, created.RoleID}] = created
	return copyLink(created), nil
}

func (r *linkRepository) Get(ctx context.Context, eventID types.EventID, roleID types.RoleID) (*model.EventRoleLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, exists := r.links[linkKey{eventID, roleID}]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "link not found",
			goerr.V("event_id", eventID), goerr.V("role_id", roleID))
	}

	return copyLink(link), nil
}

func (r *linkRepository) ListByEvent(ctx context.Context, eventID types.EventID) ([]*model.EventRoleLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var links []*model.EventRoleLink
	for key, link := range r.links {
		if key.eventID == eventID {
			links = append(links, copyLink(link))
		}
	}
	sortLinks(links)

	return links, nil
}

func (r *linkRepository) ListByRole(ctx context.Context, roleID types.RoleID) ([]*model.EventRoleLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var links []*model.EventRoleLink
	for key, link := range r.links {
		if key.roleID == roleID {
			links = append(links, copyLink(link))
		}
	}
	sortLinks(links)

	return links, nil
}

func (r *linkRepository) SetRemoteEvent(ctx context.Context, eventID types.EventID, roleID types.RoleID, remoteEventID, changeKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[linkKey{eventID, roleID}]
	if !exists {
		return goerr.Wrap(ErrNotFound, "cannot set remote event: link does not exist",
			goerr.V("event_id", eventID), goerr.V("role_id", roleID))
	}

	link.RemoteEventID = remoteEventID
	link.RemoteChangeKey = changeKey
	link.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *linkRepository) SetChangeKey(ctx context.Context, eventID types.EventID, roleID types.RoleID, changeKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[linkKey{eventID, roleID}]
	if !exists {
		return goerr.Wrap(ErrNotFound, "cannot set change key: link does not exist",
			goerr.V("event_id", eventID), goerr.V("role_id", roleID))
	}
	if link.RemoteEventID == "" {
		return goerr.New("cannot set change key without remote event ID",
			goerr.V("event_id", eventID), goerr.V("role_id", roleID))
	}

	link.RemoteChangeKey = changeKey
	link.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *linkRepository) Delete(ctx context.Context, eventID types.EventID, roleID types.RoleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := linkKey{eventID, roleID}
	if _, exists := r.links[key]; !exists {
		return goerr.Wrap(ErrNotFound, "link not found",
			goerr.V("event_id", eventID), goerr.V("role_id", roleID))
	}

	delete(r.links, key)
	return nil
}

func (r *linkRepository) DeleteByEvent(ctx context.Context, eventID types.EventID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.links {
		if key.eventID == eventID {
			delete(r.links, key)
		}
	}
	return nil
}

func (r *linkRepository) DeleteByRole(ctx context.Context, roleID types.RoleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.links {
		if key.roleID == roleID {
			delete(r.links, key)
		}
	}
	return nil
}
