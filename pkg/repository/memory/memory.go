package memory

import (
	"github.com/gighall/calsync/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is the in-memory repository backend used for development and tests
type Memory struct {
	account *accountRepository
	role    *roleRepository
	event   *eventRepository
	link    *linkRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		account: newAccountRepository(),
		role:    newRoleRepository(),
		event:   newEventRepository(),
		link:    newLinkRepository(),
	}
}

func (m *Memory) Account() interfaces.AccountRepository {
	return m.account
}

func (m *Memory) Role() interfaces.RoleRepository {
	return m.role
}

func (m *Memory) Event() interfaces.EventRepository {
	return m.event
}

func (m *Memory) Link() interfaces.LinkRepository {
	return m.link
}

func (m *Memory) Close() error {
	return nil
}
