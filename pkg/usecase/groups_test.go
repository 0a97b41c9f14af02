package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/repository/memory"
	"github.com/gighall/calsync/pkg/service/graph"
	"github.com/gighall/calsync/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestGroupGetAttachesMemberCount(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	mock := &graphMock{
		groups: []*graph.Group{
			{ID: "grp-1", DisplayName: "All Staff", Mail: "staff@example.com"},
		},
		members: []*graph.GroupMember{
			{ID: "m-1", DisplayName: "Alex", Mail: "alex@example.com"},
			{ID: "m-2", DisplayName: "Sam", Mail: "sam@example.com"},
		},
	}
	uc := usecase.New(repo, mock)

	account := newConnectedAccount(t, repo, time.Now().Add(time.Hour))

	group, members, err := uc.Group.Get(ctx, account.ID, "grp-1")
	gt.NoError(t, err).Required()
	gt.Value(t, group.MemberCount).Equal(2)
	gt.Array(t, members).Length(2)
}

func TestGroupListRequiresConnectedAccount(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	mock := &graphMock{}
	uc := usecase.New(repo, mock)

	account, err := repo.Account().Create(ctx, &model.Account{
		Name:  "Disconnected",
		Email: "off@example.com",
	})
	gt.NoError(t, err).Required()

	_, err = uc.Group.List(ctx, account.ID)
	gt.Error(t, err).Is(usecase.ErrNotConnected)
}

func TestRoomAvailabilityMapsResults(t *testing.T) {
	ctx := context.Background()

	svc := &roomsMock{results: map[string]*roomsResult{
		"stage@example.com": {events: []*graph.RoomEvent{newRoomEvent("booking-1", "Rehearsal", "Dana")}},
		"attic@example.com": {err: true},
	}}
	uc := usecase.NewRoomUseCase(svc)
	uc.SetDirectory([]model.Room{
		{Name: "Main Stage", Email: "stage@example.com"},
		{Name: "Attic", Email: "attic@example.com"},
	})

	availability, err := uc.Availability(ctx, nil, model.RoomWindow{})
	gt.NoError(t, err).Required()
	gt.Array(t, availability).Length(2)

	gt.Array(t, availability[0].Events).Length(1)
	gt.Value(t, availability[0].Events[0].Subject).Equal("Rehearsal")
	gt.Value(t, availability[0].Events[0].Organizer).Equal("Dana")

	gt.Value(t, availability[1].Error).Equal("failed to fetch events")
	gt.Array(t, availability[1].Events).Length(0)
}

func TestRoomAvailabilityFiltersDirectory(t *testing.T) {
	ctx := context.Background()

	svc := &roomsMock{results: map[string]*roomsResult{
		"attic@example.com": {},
	}}
	uc := usecase.NewRoomUseCase(svc)
	uc.SetDirectory([]model.Room{
		{Name: "Main Stage", Email: "stage@example.com"},
		{Name: "Attic", Email: "attic@example.com"},
	})

	availability, err := uc.Availability(ctx, []string{"attic@example.com", "unknown@example.com"}, model.RoomWindow{})
	gt.NoError(t, err).Required()
	gt.Array(t, availability).Length(1)
	gt.Value(t, availability[0].Room.Email).Equal("attic@example.com")
}
