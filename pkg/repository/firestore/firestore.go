package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/gighall/calsync/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// Firestore is the production repository backend
type Firestore struct {
	client  *firestore.Client
	account *accountRepository
	role    *roleRepository
	event   *eventRepository
	link    *linkRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes every collection name, used to isolate test data
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.account.collectionPrefix = prefix
		f.role.collectionPrefix = prefix
		f.event.collectionPrefix = prefix
		f.link.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:  client,
		account: newAccountRepository(client),
		role:    newRoleRepository(client),
		event:   newEventRepository(client),
		link:    newLinkRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Account() interfaces.AccountRepository {
	return f.account
}

func (f *Firestore) Role() interfaces.RoleRepository {
	return f.role
}

func (f *Firestore) Event() interfaces.EventRepository {
	return f.event
}

func (f *Firestore) Link() interfaces.LinkRepository {
	return f.link
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
