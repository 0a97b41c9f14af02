package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type accountRepository struct {
	mu       sync.RWMutex
	accounts map[types.AccountID]*model.Account
}

func newAccountRepository() *accountRepository {
	return &accountRepository{
		accounts: make(map[types.AccountID]*model.Account),
	}
}

// copyAccount creates a deep copy of an account
func copyAccount(account *model.Account) *model.Account {
	copied := *account
	return &copied
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyAccount(account)
	if created.ID == "" {
		created.ID = types.NewAccountID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.accounts[created.ID] = created
	return copyAccount(created), nil
}

func (r *accountRepository) Get(ctx context.Context, id types.AccountID) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "account not found", goerr.V("id", id))
	}

	return copyAccount(account), nil
}

func (r *accountRepository) GetByMicrosoftID(ctx context.Context, microsoftID string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if account.MicrosoftID != "" && account.MicrosoftID == microsoftID {
			return copyAccount(account), nil
		}
	}

	return nil, goerr.Wrap(ErrNotFound, "account not found", goerr.V("microsoft_id", microsoftID))
}

func (r *accountRepository) Update(ctx context.Context, account *model.Account) error {
	if err := account.Validate(); err != nil {
		return goerr.Wrap(err, "invalid account")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.accounts[account.ID]
	if !exists {
		return goerr.Wrap(ErrNotFound, "account not found", goerr.V("id", account.ID))
	}

	updated := copyAccount(account)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.accounts[account.ID] = updated

	return nil
}

func (r *accountRepository) Delete(ctx context.Context, id types.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[id]; !exists {
		return goerr.Wrap(ErrNotFound, "account not found", goerr.V("id", id))
	}

	delete(r.accounts, id)
	return nil
}
