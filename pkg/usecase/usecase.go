package usecase

import (
	"context"
	"time"

	"github.com/gighall/calsync/pkg/domain/interfaces"
	"github.com/gighall/calsync/pkg/service/graph"
	"github.com/gighall/calsync/pkg/service/queue"
	"github.com/gighall/calsync/pkg/service/rooms"
)

// Enqueuer submits sync tasks for asynchronous processing
type Enqueuer interface {
	Enqueue(ctx context.Context, task *queue.Task) error
}

type UseCases struct {
	repo interfaces.Repository

	Token *TokenUseCase
	Sync  *SyncUseCase
	Event *EventUseCase
	Group *GroupUseCase
	Room  *RoomUseCase
}

type Option func(*UseCases)

// WithRooms enables the room availability use case
func WithRooms(roomSvc rooms.Service) Option {
	return func(uc *UseCases) {
		uc.Room = NewRoomUseCase(roomSvc)
	}
}

// WithClock overrides the time source for the token and sync flows
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.Token.now = now
	}
}

func New(repo interfaces.Repository, graphSvc graph.Service, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	uc.Token = NewTokenUseCase(repo, graphSvc)
	uc.Sync = NewSyncUseCase(repo, graphSvc, uc.Token)
	uc.Event = NewEventUseCase(repo)
	uc.Group = NewGroupUseCase(repo, graphSvc, uc.Token)

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// AttachQueue wires the sync queue into the event lifecycle fan-out. The
// queue is constructed after the use cases because its handler calls back
// into Sync.
func (uc *UseCases) AttachQueue(q Enqueuer) {
	uc.Event.queue = q
}
