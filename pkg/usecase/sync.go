package usecase

import (
	"context"

	"github.com/gighall/calsync/pkg/domain/interfaces"
	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/gighall/calsync/pkg/service/graph"
	"github.com/gighall/calsync/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// SyncUseCase reconciles local events against the remote calendar, one
// (event, role) pair at a time.
type SyncUseCase struct {
	repo  interfaces.Repository
	graph graph.Service
	token *TokenUseCase
}

func NewSyncUseCase(repo interfaces.Repository, graphSvc graph.Service, token *TokenUseCase) *SyncUseCase {
	return &SyncUseCase{
		repo:  repo,
		graph: graphSvc,
		token: token,
	}
}

// SyncReport summarizes a bulk sync run
type SyncReport struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// SyncEvent applies one sync action to the (event, role) pair. A role whose
// account is disconnected or whose token cannot be refreshed is a logged
// no-op, never an error; remote failures are returned so the queue can
// retry.
func (uc *SyncUseCase) SyncEvent(ctx context.Context, eventID types.EventID, roleID types.RoleID, action types.SyncAction) error {
	logger := logging.From(ctx)

	role, err := uc.repo.Role().Get(ctx, roleID)
	if err != nil {
		return goerr.Wrap(err, "failed to load role for sync", goerr.V("roleID", roleID))
	}

	if role.AccountID == "" {
		logger.Warn("role has no organizing account, skipping sync",
			"eventID", eventID, "roleID", roleID)
		return nil
	}

	account, err := uc.repo.Account().Get(ctx, role.AccountID)
	if err != nil {
		return goerr.Wrap(err, "failed to load account for sync",
			goerr.V("roleID", roleID), goerr.V("accountID", role.AccountID))
	}

	if !account.Connected() {
		logger.Warn("account is not connected, skipping sync",
			"eventID", eventID, "roleID", roleID, "accountID", account.ID)
		return nil
	}

	if !uc.token.EnsureValid(ctx, account) {
		logger.Error("token refresh failed, skipping sync",
			"eventID", eventID, "roleID", roleID, "accountID", account.ID)
		return nil
	}

	switch action {
	case types.SyncActionCreate, types.SyncActionUpdate:
		return uc.syncUpsert(ctx, eventID, role, account)
	case types.SyncActionDelete:
		return uc.syncDelete(ctx, eventID, role, account)
	default:
		return goerr.New("invalid sync action", goerr.V("action", action))
	}
}

// syncUpsert creates the remote event when the pair is unsynced and updates
// it otherwise. An update whose remote event vanished falls back to create.
func (uc *SyncUseCase) syncUpsert(ctx context.Context, eventID types.EventID, role *model.Role, account *model.Account) error {
	logger := logging.From(ctx)

	link, err := uc.repo.Link().Get(ctx, eventID, role.ID)
	if err != nil {
		if isNotFound(err) {
			return goerr.Wrap(ErrMappingMissing, "cannot sync without a calendar link",
				goerr.V("eventID", eventID), goerr.V("roleID", role.ID))
		}
		return goerr.Wrap(err, "failed to load calendar link",
			goerr.V("eventID", eventID), goerr.V("roleID", role.ID))
	}

	event, err := uc.repo.Event().Get(ctx, eventID)
	if err != nil {
		return goerr.Wrap(err, "failed to load event for sync", goerr.V("eventID", eventID))
	}

	payload := buildEventPayload(event, role)

	if !link.Synced() {
		return uc.createRemote(ctx, event, role, account, payload)
	}

	remote, err := uc.graph.UpdateEvent(ctx, account.AccessToken, role.CalendarID(), link.RemoteEventID, payload)
	if err != nil {
		if isRemoteNotFound(err) {
			logger.Warn("remote event vanished, recreating",
				"eventID", eventID, "roleID", role.ID, "remoteEventID", link.RemoteEventID)
			return uc.createRemote(ctx, event, role, account, payload)
		}
		return goerr.Wrap(err, "failed to update remote event",
			goerr.V("eventID", eventID), goerr.V("roleID", role.ID),
			goerr.V("remoteEventID", link.RemoteEventID))
	}

	if remote.ChangeKey != "" {
		if err := uc.repo.Link().SetChangeKey(ctx, eventID, role.ID, remote.ChangeKey); err != nil {
			return goerr.Wrap(err, "failed to record change key",
				goerr.V("eventID", eventID), goerr.V("roleID", role.ID))
		}
	}

	logger.Info("remote event updated",
		"eventID", eventID, "roleID", role.ID, "remoteEventID", link.RemoteEventID)

	return nil
}

func (uc *SyncUseCase) createRemote(ctx context.Context, event *model.Event, role *model.Role, account *model.Account, payload *graph.EventPayload) error {
	remote, err := uc.graph.CreateEvent(ctx, account.AccessToken, role.CalendarID(), payload)
	if err != nil {
		return goerr.Wrap(err, "failed to create remote event",
			goerr.V("eventID", event.ID), goerr.V("roleID", role.ID))
	}

	if err := uc.repo.Link().SetRemoteEvent(ctx, event.ID, role.ID, remote.ID, remote.ChangeKey); err != nil {
		if isNotFound(err) {
			return goerr.Wrap(ErrMappingMissing, "calendar link disappeared during sync",
				goerr.V("eventID", event.ID), goerr.V("roleID", role.ID))
		}
		return goerr.Wrap(err, "failed to record remote event",
			goerr.V("eventID", event.ID), goerr.V("roleID", role.ID))
	}

	logging.From(ctx).Info("remote event created",
		"eventID", event.ID, "roleID", role.ID,
		"remoteEventID", remote.ID, "calendarID", role.CalendarID())

	return nil
}

// syncDelete removes the remote event and then the link itself. A pair that
// was never synced is a logged no-op; the link is still removed so no
// orphan mapping outlives the event.
func (uc *SyncUseCase) syncDelete(ctx context.Context, eventID types.EventID, role *model.Role, account *model.Account) error {
	logger := logging.From(ctx)

	link, err := uc.repo.Link().Get(ctx, eventID, role.ID)
	if err != nil {
		if isNotFound(err) {
			logger.Warn("no calendar link found for deletion",
				"eventID", eventID, "roleID", role.ID)
			return nil
		}
		return goerr.Wrap(err, "failed to load calendar link",
			goerr.V("eventID", eventID), goerr.V("roleID", role.ID))
	}

	if !link.Synced() {
		logger.Warn("no remote event recorded for deletion",
			"eventID", eventID, "roleID", role.ID)
		if err := uc.repo.Link().Delete(ctx, eventID, role.ID); err != nil && !isNotFound(err) {
			return goerr.Wrap(err, "failed to remove calendar link",
				goerr.V("eventID", eventID), goerr.V("roleID", role.ID))
		}
		return nil
	}

	if err := uc.graph.DeleteEvent(ctx, account.AccessToken, role.CalendarID(), link.RemoteEventID); err != nil {
		return goerr.Wrap(err, "failed to delete remote event",
			goerr.V("eventID", eventID), goerr.V("roleID", role.ID),
			goerr.V("remoteEventID", link.RemoteEventID))
	}

	if err := uc.repo.Link().Delete(ctx, eventID, role.ID); err != nil && !isNotFound(err) {
		return goerr.Wrap(err, "failed to remove calendar link",
			goerr.V("eventID", eventID), goerr.V("roleID", role.ID))
	}

	logger.Info("remote event deleted",
		"eventID", eventID, "roleID", role.ID, "remoteEventID", link.RemoteEventID)

	return nil
}

// SyncAll backfills the role's events to the remote calendar. Pairs that
// already carry a remote ID are skipped, not reconciled. A token refresh
// failure aborts the whole run.
func (uc *SyncUseCase) SyncAll(ctx context.Context, roleID types.RoleID) (*SyncReport, error) {
	logger := logging.From(ctx)
	report := &SyncReport{}

	role, err := uc.repo.Role().Get(ctx, roleID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load role for bulk sync", goerr.V("roleID", roleID))
	}

	if role.AccountID == "" {
		return nil, goerr.Wrap(ErrNotConnected, "role has no organizing account", goerr.V("roleID", roleID))
	}

	account, err := uc.repo.Account().Get(ctx, role.AccountID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load account for bulk sync", goerr.V("roleID", roleID))
	}

	if !uc.token.EnsureValid(ctx, account) {
		report.Errors++
		return report, goerr.Wrap(ErrTokenRefreshFailed, "aborting bulk sync", goerr.V("roleID", roleID))
	}

	links, err := uc.repo.Link().ListByRole(ctx, roleID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list calendar links", goerr.V("roleID", roleID))
	}

	for _, link := range links {
		if link.Synced() {
			report.Skipped++
			continue
		}

		event, err := uc.repo.Event().Get(ctx, link.EventID)
		if err != nil {
			logger.Error("failed to load event during bulk sync",
				"eventID", link.EventID, "roleID", roleID, "error", err)
			report.Errors++
			continue
		}

		if err := uc.createRemote(ctx, event, role, account, buildEventPayload(event, role)); err != nil {
			logger.Error("failed to sync event during bulk sync",
				"eventID", link.EventID, "roleID", roleID, "error", err)
			report.Errors++
			continue
		}

		report.Created++
	}

	logger.Info("bulk sync finished", "roleID", roleID,
		"created", report.Created, "skipped", report.Skipped, "errors", report.Errors)

	return report, nil
}

// buildEventPayload maps a local event to the remote representation. Create
// and update share this mapping so that repeated syncs of an unchanged
// event converge without a visible remote diff.
func buildEventPayload(event *model.Event, role *model.Role) *graph.EventPayload {
	timezone := role.TimezoneOrUTC()

	payload := &graph.EventPayload{
		Subject: event.Name,
		Body: graph.ItemBody{
			ContentType: "HTML",
			Content:     event.Description,
		},
		Start: graph.DateTimeZone{
			DateTime: event.StartDateTime().Format("2006-01-02T15:04:05"),
			TimeZone: timezone,
		},
		End: graph.DateTimeZone{
			DateTime: event.EndDateTime().Format("2006-01-02T15:04:05"),
			TimeZone: timezone,
		},
	}

	if event.VenueAddress != "" {
		payload.Location = &graph.Location{DisplayName: event.VenueAddress}
	}

	return payload
}
