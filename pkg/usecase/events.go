package usecase

import (
	"context"

	"github.com/gighall/calsync/pkg/domain/interfaces"
	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/gighall/calsync/pkg/service/queue"
	"github.com/gighall/calsync/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// EventUseCase owns the local event lifecycle and fans each mutation out to
// the sync queue, one task per role whose calendar receives local changes.
type EventUseCase struct {
	repo  interfaces.Repository
	queue Enqueuer
}

func NewEventUseCase(repo interfaces.Repository) *EventUseCase {
	return &EventUseCase{
		repo: repo,
	}
}

// Create stores the event, associates it with the given roles and enqueues
// a create task for every role that pushes to a remote calendar.
func (uc *EventUseCase) Create(ctx context.Context, event *model.Event, roleIDs []types.RoleID) (*model.Event, error) {
	created, err := uc.repo.Event().Create(ctx, event)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create event")
	}

	for _, roleID := range roleIDs {
		if _, err := uc.repo.Link().Create(ctx, &model.EventRoleLink{
			EventID: created.ID,
			RoleID:  roleID,
		}); err != nil {
			return nil, goerr.Wrap(err, "failed to associate event with role",
				goerr.V("eventID", created.ID), goerr.V("roleID", roleID))
		}
	}

	uc.fanOut(ctx, created.ID, types.SyncActionCreate)

	return created, nil
}

// Update persists the event and enqueues an update task per syncing role
func (uc *EventUseCase) Update(ctx context.Context, event *model.Event) error {
	if err := uc.repo.Event().Update(ctx, event); err != nil {
		return goerr.Wrap(err, "failed to update event", goerr.V("eventID", event.ID))
	}

	uc.fanOut(ctx, event.ID, types.SyncActionUpdate)

	return nil
}

// Delete removes the local event. Synced pairs keep their link until the
// queued delete task has removed the remote event; unsynced links are
// dropped immediately so no orphan mapping remains.
func (uc *EventUseCase) Delete(ctx context.Context, eventID types.EventID) error {
	logger := logging.From(ctx)

	links, err := uc.repo.Link().ListByEvent(ctx, eventID)
	if err != nil {
		return goerr.Wrap(err, "failed to list calendar links", goerr.V("eventID", eventID))
	}

	for _, link := range links {
		if link.Synced() && uc.roleSyncs(ctx, link.RoleID) {
			uc.enqueue(ctx, eventID, link.RoleID, types.SyncActionDelete)
			continue
		}

		if err := uc.repo.Link().Delete(ctx, eventID, link.RoleID); err != nil && !isNotFound(err) {
			logger.Error("failed to remove calendar link",
				"eventID", eventID, "roleID", link.RoleID, "error", err)
		}
	}

	if err := uc.repo.Event().Delete(ctx, eventID); err != nil {
		return goerr.Wrap(err, "failed to delete event", goerr.V("eventID", eventID))
	}

	return nil
}

// AttachRole associates an existing event with a role and syncs it out
func (uc *EventUseCase) AttachRole(ctx context.Context, eventID types.EventID, roleID types.RoleID) error {
	if _, err := uc.repo.Event().Get(ctx, eventID); err != nil {
		return goerr.Wrap(err, "failed to load event", goerr.V("eventID", eventID))
	}

	if _, err := uc.repo.Link().Create(ctx, &model.EventRoleLink{
		EventID: eventID,
		RoleID:  roleID,
	}); err != nil {
		return goerr.Wrap(err, "failed to associate event with role",
			goerr.V("eventID", eventID), goerr.V("roleID", roleID))
	}

	if uc.roleSyncs(ctx, roleID) {
		uc.enqueue(ctx, eventID, roleID, types.SyncActionCreate)
	}

	return nil
}

// DetachRole removes the association and the remote event before it
func (uc *EventUseCase) DetachRole(ctx context.Context, eventID types.EventID, roleID types.RoleID) error {
	link, err := uc.repo.Link().Get(ctx, eventID, roleID)
	if err != nil {
		if isNotFound(err) {
			return goerr.Wrap(ErrMappingMissing, "event is not associated with role",
				goerr.V("eventID", eventID), goerr.V("roleID", roleID))
		}
		return goerr.Wrap(err, "failed to load calendar link",
			goerr.V("eventID", eventID), goerr.V("roleID", roleID))
	}

	if link.Synced() && uc.roleSyncs(ctx, roleID) {
		uc.enqueue(ctx, eventID, roleID, types.SyncActionDelete)
		return nil
	}

	if err := uc.repo.Link().Delete(ctx, eventID, roleID); err != nil && !isNotFound(err) {
		return goerr.Wrap(err, "failed to remove calendar link",
			goerr.V("eventID", eventID), goerr.V("roleID", roleID))
	}

	return nil
}

// fanOut enqueues one task per role that pushes local changes to a
// connected remote calendar.
func (uc *EventUseCase) fanOut(ctx context.Context, eventID types.EventID, action types.SyncAction) {
	logger := logging.From(ctx)

	links, err := uc.repo.Link().ListByEvent(ctx, eventID)
	if err != nil {
		logger.Error("failed to list calendar links for fan-out",
			"eventID", eventID, "action", action, "error", err)
		return
	}

	for _, link := range links {
		if !uc.roleSyncs(ctx, link.RoleID) {
			continue
		}
		uc.enqueue(ctx, eventID, link.RoleID, action)
	}
}

// roleSyncs reports whether the role pushes local changes to a remote
// calendar owned by a connected account.
func (uc *EventUseCase) roleSyncs(ctx context.Context, roleID types.RoleID) bool {
	logger := logging.From(ctx)

	role, err := uc.repo.Role().Get(ctx, roleID)
	if err != nil {
		logger.Error("failed to load role for fan-out", "roleID", roleID, "error", err)
		return false
	}

	if !role.SyncsToRemote() || role.AccountID == "" {
		return false
	}

	account, err := uc.repo.Account().Get(ctx, role.AccountID)
	if err != nil {
		logger.Error("failed to load account for fan-out",
			"roleID", roleID, "accountID", role.AccountID, "error", err)
		return false
	}

	return account.Connected()
}

func (uc *EventUseCase) enqueue(ctx context.Context, eventID types.EventID, roleID types.RoleID, action types.SyncAction) {
	if uc.queue == nil {
		return
	}

	task := &queue.Task{EventID: eventID, RoleID: roleID, Action: action}
	if err := uc.queue.Enqueue(ctx, task); err != nil {
		logging.From(ctx).Error("failed to enqueue sync task",
			"eventID", eventID, "roleID", roleID, "action", action, "error", err)
	}
}
