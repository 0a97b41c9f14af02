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

type accountDocument struct {
	ID             string    `firestore:"id"`
	Name           string    `firestore:"name"`
	Email          string    `firestore:"email"`
	MicrosoftID    string    `firestore:"microsoft_id"`
	AccessToken    string    `firestore:"access_token"`
	RefreshToken   string    `firestore:"refresh_token"`
	TokenExpiresAt time.Time `firestore:"token_expires_at"`
	CalendarID     string    `firestore:"calendar_id"`
	CreatedAt      time.Time `firestore:"created_at"`
	UpdatedAt      time.Time `firestore:"updated_at"`
}

type accountRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAccountRepository(client *firestore.Client) *accountRepository {
	return &accountRepository{client: client}
}

func (r *accountRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_accounts"
	}
	return "accounts"
}

func accountToDocument(account *model.Account) *accountDocument {
	return &accountDocument{
		ID:             string(account.ID),
		Name:           account.Name,
		Email:          account.Email,
		MicrosoftID:    account.MicrosoftID,
		AccessToken:    account.AccessToken,
		RefreshToken:   account.RefreshToken,
		TokenExpiresAt: account.TokenExpiresAt,
		CalendarID:     account.CalendarID,
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
	}
}

func accountToModel(doc *accountDocument) *model.Account {
	return &model.Account{
		ID:             types.AccountID(doc.ID),
		Name:           doc.Name,
		Email:          doc.Email,
		MicrosoftID:    doc.MicrosoftID,
		AccessToken:    doc.AccessToken,
		RefreshToken:   doc.RefreshToken,
		TokenExpiresAt: doc.TokenExpiresAt,
		CalendarID:     doc.CalendarID,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) (*model.Account, error) {
	now := time.Now().UTC()
	created := *account
	if created.ID == "" {
		created.ID = types.NewAccountID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	docRef := r.client.Collection(r.collection()).Doc(string(created.ID))
	if _, err := docRef.Set(ctx, accountToDocument(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create account", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *accountRepository) Get(ctx context.Context, id types.AccountID) (*model.Account, error) {
	doc, err := r.client.Collection(r.collection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "account not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get account", goerr.V("id", id))
	}

	var d accountDocument
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal account", goerr.V("id", id))
	}

	return accountToModel(&d), nil
}

func (r *accountRepository) GetByMicrosoftID(ctx context.Context, microsoftID string) (*model.Account, error) {
	iter := r.client.Collection(r.collection()).
		Where("microsoft_id", "==", microsoftID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(ErrNotFound, "account not found", goerr.V("microsoft_id", microsoftID))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query account", goerr.V("microsoft_id", microsoftID))
	}

	var d accountDocument
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal account")
	}

	return accountToModel(&d), nil
}

func (r *accountRepository) Update(ctx context.Context, account *model.Account) error {
	if err := account.Validate(); err != nil {
		return goerr.Wrap(err, "invalid account")
	}

	docRef := r.client.Collection(r.collection()).Doc(string(account.ID))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "account not found", goerr.V("id", account.ID))
		}
		return goerr.Wrap(err, "failed to get account", goerr.V("id", account.ID))
	}

	var existing accountDocument
	if err := doc.DataTo(&existing); err != nil {
		return goerr.Wrap(err, "failed to unmarshal account", goerr.V("id", account.ID))
	}

	updated := *account
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, accountToDocument(&updated)); err != nil {
		return goerr.Wrap(err, "failed to update account", goerr.V("id", account.ID))
	}

	return nil
}

func (r *accountRepository) Delete(ctx context.Context, id types.AccountID) error {
	docRef := r.client.Collection(r.collection()).Doc(string(id))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "account not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get account", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete account", goerr.V("id", id))
	}

	return nil
}
