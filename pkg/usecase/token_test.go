package usecase_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/repository/memory"
	"github.com/gighall/calsync/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func newConnectedAccount(t *testing.T, repo *memory.Memory, expiresAt time.Time) *model.Account {
	t.Helper()
	account, err := repo.Account().Create(context.Background(), &model.Account{
		Email:          "organizer@example.com",
		MicrosoftID:    "ms-oid-1",
		AccessToken:    "current-access",
		RefreshToken:   "current-refresh",
		TokenExpiresAt: expiresAt,
	})
	gt.NoError(t, err).Required()
	return account
}

func TestEnsureValidSkipsRefreshFarFromExpiry(t *testing.T) {
	repo := memory.New()
	mock := &graphMock{}
	uc := usecase.New(repo, mock)

	account := newConnectedAccount(t, repo, time.Now().Add(10*time.Minute))

	gt.Bool(t, uc.Token.EnsureValid(context.Background(), account)).True()
	gt.Value(t, atomic.LoadInt32(&mock.refreshCalls)).Equal(int32(0))
}

func TestEnsureValidRefreshesNearExpiry(t *testing.T) {
	repo := memory.New()
	mock := &graphMock{}
	uc := usecase.New(repo, mock)

	ctx := context.Background()
	account := newConnectedAccount(t, repo, time.Now().Add(time.Minute))

	gt.Bool(t, uc.Token.EnsureValid(ctx, account)).True()
	gt.Value(t, atomic.LoadInt32(&mock.refreshCalls)).Equal(int32(1))
	gt.Value(t, account.AccessToken).Equal("refreshed-access")

	// Rotated credential is persisted
	stored, err := repo.Account().Get(ctx, account.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, stored.AccessToken).Equal("refreshed-access")
}

func TestEnsureValidWithoutRefreshTokenFails(t *testing.T) {
	repo := memory.New()
	mock := &graphMock{}
	uc := usecase.New(repo, mock)

	account, err := repo.Account().Create(context.Background(), &model.Account{
		AccessToken: "access-without-refresh",
	})
	gt.NoError(t, err).Required()

	gt.Bool(t, uc.Token.EnsureValid(context.Background(), account)).False()
	gt.Value(t, atomic.LoadInt32(&mock.refreshCalls)).Equal(int32(0))
}

func TestEnsureValidRecoversMissingAccessToken(t *testing.T) {
	repo := memory.New()
	mock := &graphMock{}
	uc := usecase.New(repo, mock)

	ctx := context.Background()
	account, err := repo.Account().Create(ctx, &model.Account{
		RefreshToken:   "current-refresh",
		TokenExpiresAt: time.Now().Add(time.Hour),
	})
	gt.NoError(t, err).Required()
	gt.Bool(t, account.Connected()).True()

	gt.Bool(t, uc.Token.EnsureValid(ctx, account)).True()
	gt.Value(t, atomic.LoadInt32(&mock.refreshCalls)).Equal(int32(1))
	gt.Value(t, account.AccessToken).Equal("refreshed-access")
}

func TestEnsureValidReportsRefreshFailure(t *testing.T) {
	repo := memory.New()
	mock := &graphMock{refreshErr: goerr.New("provider rejected refresh")}
	uc := usecase.New(repo, mock)

	account := newConnectedAccount(t, repo, time.Now().Add(time.Minute))

	gt.Bool(t, uc.Token.EnsureValid(context.Background(), account)).False()
}

func TestHandleCallbackPersistsCredential(t *testing.T) {
	repo := memory.New()
	mock := &graphMock{}
	uc := usecase.New(repo, mock)

	ctx := context.Background()
	account, err := repo.Account().Create(ctx, &model.Account{Name: "Organizer"})
	gt.NoError(t, err).Required()

	connected, err := uc.Token.HandleCallback(ctx, account.ID, "auth-code")
	gt.NoError(t, err).Required()

	gt.Value(t, connected.MicrosoftID).Equal("ms-oid-1")
	gt.Value(t, connected.Email).Equal("connected@example.com")
	gt.Bool(t, connected.Connected()).True()

	stored, err := repo.Account().Get(ctx, account.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, stored.Connected()).True()
}

func TestDisconnectClearsCredentialAndWebhooks(t *testing.T) {
	repo := memory.New()
	mock := &graphMock{}
	uc := usecase.New(repo, mock)

	ctx := context.Background()
	account := newConnectedAccount(t, repo, time.Now().Add(time.Hour))

	role, err := repo.Role().Create(ctx, &model.Role{
		Subdomain: "venue-x",
		AccountID: account.ID,
		CalendarBinding: model.CalendarBinding{
			WebhookSubscriptionID: "sub-123",
			WebhookExpiresAt:      time.Now().Add(24 * time.Hour),
		},
	})
	gt.NoError(t, err).Required()

	gt.NoError(t, uc.Token.Disconnect(ctx, account.ID)).Required()

	stored, err := repo.Account().Get(ctx, account.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, stored.Connected()).False()
	gt.Value(t, stored.MicrosoftID).Equal("")

	storedRole, err := repo.Role().Get(ctx, role.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, storedRole.CalendarBinding.WebhookSubscriptionID).Equal("")
	gt.Bool(t, storedRole.CalendarBinding.WebhookExpiresAt.IsZero()).True()
}

func TestSelectCalendarDefaultsToPrimary(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo, &graphMock{})

	ctx := context.Background()
	role, err := repo.Role().Create(ctx, &model.Role{Subdomain: "venue-y"})
	gt.NoError(t, err).Required()

	gt.NoError(t, uc.Token.SelectCalendar(ctx, role.ID, "", "", "to")).Required()

	stored, err := repo.Role().Get(ctx, role.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, stored.CalendarID()).Equal(model.PrimaryCalendarID)
	gt.Bool(t, stored.SyncsToRemote()).True()
}
