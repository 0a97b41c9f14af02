package usecase

import (
	"context"
	"time"

	"github.com/gighall/calsync/pkg/domain/interfaces"
	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/gighall/calsync/pkg/service/graph"
	"github.com/gighall/calsync/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// refreshSkipWindow is how far in the future the token expiry must be for
// EnsureValid to skip the refresh exchange entirely.
const refreshSkipWindow = 5 * time.Minute

// TokenUseCase owns the Microsoft credential lifecycle: the OAuth connect
// flow, proactive refresh before API calls, and disconnect.
type TokenUseCase struct {
	repo  interfaces.Repository
	graph graph.Service
	now   func() time.Time
}

func NewTokenUseCase(repo interfaces.Repository, graphSvc graph.Service) *TokenUseCase {
	return &TokenUseCase{
		repo:  repo,
		graph: graphSvc,
		now:   time.Now,
	}
}

// EnsureValid guarantees the account's access token is usable. It refreshes
// only when the expiry is within the skip window, persisting the rotated
// credential. Failures are logged and reported as false; this boundary
// never returns an error.
func (uc *TokenUseCase) EnsureValid(ctx context.Context, account *model.Account) bool {
	logger := logging.From(ctx)

	if !account.Connected() {
		logger.Warn("account missing Microsoft refresh token",
			"accountID", account.ID,
			"hasAccessToken", account.AccessToken != "")
		return false
	}

	if account.AccessToken != "" &&
		!account.TokenExpiresAt.IsZero() && account.TokenExpiresAt.Sub(uc.now()) > refreshSkipWindow {
		return true
	}

	logger.Info("refreshing Microsoft token",
		"accountID", account.ID, "expiresAt", account.TokenExpiresAt)

	token, err := uc.graph.Refresh(ctx, account.RefreshToken)
	if err != nil {
		logger.Error("failed to refresh Microsoft token",
			"accountID", account.ID, "error", err)
		return false
	}

	account.AccessToken = token.AccessToken
	account.TokenExpiresAt = token.Expiry
	if token.RefreshToken != "" {
		account.RefreshToken = token.RefreshToken
	}

	if err := uc.repo.Account().Update(ctx, account); err != nil {
		logger.Error("failed to persist refreshed token",
			"accountID", account.ID, "error", err)
		return false
	}

	return true
}

// AuthURL returns the Microsoft consent URL for the connect flow
func (uc *TokenUseCase) AuthURL(state string) string {
	return uc.graph.AuthCodeURL(state)
}

// HandleCallback completes the OAuth flow for the account: exchanges the
// authorization code, extracts the Microsoft identity from the id_token and
// persists the credential.
func (uc *TokenUseCase) HandleCallback(ctx context.Context, accountID types.AccountID, code string) (*model.Account, error) {
	account, err := uc.repo.Account().Get(ctx, accountID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load account for callback", goerr.V("accountID", accountID))
	}

	token, identity, err := uc.graph.Exchange(ctx, code)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to complete Microsoft authorization", goerr.V("accountID", accountID))
	}

	account.MicrosoftID = identity.MicrosoftID
	account.AccessToken = token.AccessToken
	account.RefreshToken = token.RefreshToken
	account.TokenExpiresAt = token.Expiry
	if account.Email == "" {
		account.Email = identity.Email
	}

	if err := uc.repo.Account().Update(ctx, account); err != nil {
		return nil, goerr.Wrap(err, "failed to persist Microsoft credential", goerr.V("accountID", accountID))
	}

	logging.From(ctx).Info("Microsoft account connected",
		"accountID", account.ID, "microsoftID", identity.MicrosoftID)

	return account, nil
}

// Disconnect clears the account's Microsoft credential and the webhook
// metadata on every role the account organizes.
func (uc *TokenUseCase) Disconnect(ctx context.Context, accountID types.AccountID) error {
	account, err := uc.repo.Account().Get(ctx, accountID)
	if err != nil {
		return goerr.Wrap(err, "failed to load account for disconnect", goerr.V("accountID", accountID))
	}

	account.Disconnect()
	if err := uc.repo.Account().Update(ctx, account); err != nil {
		return goerr.Wrap(err, "failed to clear Microsoft credential", goerr.V("accountID", accountID))
	}

	roles, err := uc.repo.Role().ListByAccount(ctx, accountID)
	if err != nil {
		return goerr.Wrap(err, "failed to list roles for disconnect", goerr.V("accountID", accountID))
	}

	for _, role := range roles {
		if role.CalendarBinding.WebhookSubscriptionID == "" && role.CalendarBinding.WebhookExpiresAt.IsZero() {
			continue
		}
		role.CalendarBinding.ClearWebhook()
		if err := uc.repo.Role().Update(ctx, role); err != nil {
			return goerr.Wrap(err, "failed to clear webhook metadata",
				goerr.V("accountID", accountID), goerr.V("roleID", role.ID))
		}
	}

	logging.From(ctx).Info("Microsoft account disconnected", "accountID", accountID)

	return nil
}

// ListCalendars returns the calendars of the connected account
func (uc *TokenUseCase) ListCalendars(ctx context.Context, accountID types.AccountID) ([]*graph.Calendar, error) {
	account, err := uc.repo.Account().Get(ctx, accountID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load account", goerr.V("accountID", accountID))
	}

	if !uc.EnsureValid(ctx, account) {
		return nil, goerr.Wrap(ErrNotConnected, "cannot list calendars", goerr.V("accountID", accountID))
	}

	calendars, err := uc.graph.ListCalendars(ctx, account.AccessToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list calendars", goerr.V("accountID", accountID))
	}

	return calendars, nil
}

// SelectCalendar binds a role to one of the account's calendars
func (uc *TokenUseCase) SelectCalendar(ctx context.Context, roleID types.RoleID, calendarID, calendarName string, direction types.SyncDirection) error {
	if calendarID == "" {
		calendarID = model.PrimaryCalendarID
	}
	direction = direction.Normalize()
	if !direction.IsValid() {
		return goerr.New("invalid sync direction", goerr.V("direction", direction))
	}

	role, err := uc.repo.Role().Get(ctx, roleID)
	if err != nil {
		return goerr.Wrap(err, "failed to load role", goerr.V("roleID", roleID))
	}

	role.CalendarBinding.CalendarID = calendarID
	role.CalendarBinding.CalendarName = calendarName
	role.CalendarBinding.Direction = direction

	if err := uc.repo.Role().Update(ctx, role); err != nil {
		return goerr.Wrap(err, "failed to persist calendar selection", goerr.V("roleID", roleID))
	}

	logging.From(ctx).Info("calendar selected",
		"roleID", roleID, "calendarID", calendarID, "direction", direction)

	return nil
}
