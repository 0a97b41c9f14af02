package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gighall/calsync/pkg/domain/interfaces"
	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/gighall/calsync/pkg/repository/memory"
	"github.com/m-mizutani/gt"
)

func runLinkRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	newPair := func(t *testing.T, repo interfaces.Repository) (types.EventID, types.RoleID) {
		t.Helper()
		ctx := context.Background()
		event, err := repo.Event().Create(ctx, &model.Event{Name: "Banquet", StartsAt: time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)})
		gt.NoError(t, err).Required()
		role, err := repo.Role().Create(ctx, &model.Role{Subdomain: "banquet-hall"})
		gt.NoError(t, err).Required()
		return event.ID, role.ID
	}

	t.Run("Create and Get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		eventID, roleID := newPair(t, repo)

		_, err := repo.Link().Create(ctx, &model.EventRoleLink{
			EventID: eventID,
			RoleID:  roleID,
		})
		gt.NoError(t, err).Required()

		got, err := repo.Link().Get(ctx, eventID, roleID)
		gt.NoError(t, err).Required()
		gt.Bool(t, got.Synced()).False()
	})

	t.Run("SetRemoteEvent stores remote identity", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		eventID, roleID := newPair(t, repo)

		_, err := repo.Link().Create(ctx, &model.EventRoleLink{EventID: eventID, RoleID: roleID})
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Link().SetRemoteEvent(ctx, eventID, roleID, "AAMkRemote01", "CQAAABYA")).Required()

		got, err := repo.Link().Get(ctx, eventID, roleID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.RemoteEventID).Equal("AAMkRemote01")
		gt.Value(t, got.RemoteChangeKey).Equal("CQAAABYA")
		gt.Bool(t, got.Synced()).True()
	})

	t.Run("SetRemoteEvent without join record fails", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		eventID, roleID := newPair(t, repo)

		err := repo.Link().SetRemoteEvent(ctx, eventID, roleID, "AAMkRemote02", "")
		gt.Value(t, err).NotNil()
	})

	t.Run("SetChangeKey requires an existing remote event", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		eventID, roleID := newPair(t, repo)

		_, err := repo.Link().Create(ctx, &model.EventRoleLink{EventID: eventID, RoleID: roleID})
		gt.NoError(t, err).Required()

		gt.Value(t, repo.Link().SetChangeKey(ctx, eventID, roleID, "CQAAABZZ")).NotNil()

		gt.NoError(t, repo.Link().SetRemoteEvent(ctx, eventID, roleID, "AAMkRemote03", "CQAAAB01")).Required()
		gt.NoError(t, repo.Link().SetChangeKey(ctx, eventID, roleID, "CQAAAB02")).Required()

		got, err := repo.Link().Get(ctx, eventID, roleID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.RemoteChangeKey).Equal("CQAAAB02")
	})

	t.Run("ListByEvent and ListByRole", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		event, err := repo.Event().Create(ctx, &model.Event{Name: "Gala", StartsAt: time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)})
		gt.NoError(t, err).Required()
		roleA, err := repo.Role().Create(ctx, &model.Role{Subdomain: "hall-a"})
		gt.NoError(t, err).Required()
		roleB, err := repo.Role().Create(ctx, &model.Role{Subdomain: "hall-b"})
		gt.NoError(t, err).Required()

		for _, roleID := range []types.RoleID{roleA.ID, roleB.ID} {
			_, err := repo.Link().Create(ctx, &model.EventRoleLink{EventID: event.ID, RoleID: roleID})
			gt.NoError(t, err).Required()
		}

		byEvent, err := repo.Link().ListByEvent(ctx, event.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, len(byEvent)).Equal(2)

		byRole, err := repo.Link().ListByRole(ctx, roleA.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, len(byRole)).Equal(1)
	})

	t.Run("ListByEvent returns links in creation order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		event, err := repo.Event().Create(ctx, &model.Event{Name: "Festival", StartsAt: time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)})
		gt.NoError(t, err).Required()

		var want []types.RoleID
		for _, subdomain := range []string{"stage-c", "stage-a", "stage-b"} {
			role, err := repo.Role().Create(ctx, &model.Role{Subdomain: subdomain})
			gt.NoError(t, err).Required()
			_, err = repo.Link().Create(ctx, &model.EventRoleLink{EventID: event.ID, RoleID: role.ID})
			gt.NoError(t, err).Required()
			want = append(want, role.ID)
			time.Sleep(time.Millisecond)
		}

		links, err := repo.Link().ListByEvent(ctx, event.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, links).Length(3)
		for i, link := range links {
			gt.Value(t, link.RoleID).Equal(want[i])
		}
	})

	t.Run("Delete and DeleteByEvent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		eventID, roleID := newPair(t, repo)

		_, err := repo.Link().Create(ctx, &model.EventRoleLink{EventID: eventID, RoleID: roleID})
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Link().Delete(ctx, eventID, roleID)).Required()
		_, err = repo.Link().Get(ctx, eventID, roleID)
		gt.Value(t, err).NotNil()

		_, err = repo.Link().Create(ctx, &model.EventRoleLink{EventID: eventID, RoleID: roleID})
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Link().DeleteByEvent(ctx, eventID)).Required()

		remaining, err := repo.Link().ListByEvent(ctx, eventID)
		gt.NoError(t, err).Required()
		gt.Value(t, len(remaining)).Equal(0)
	})
}

func TestLinkRepositoryMemory(t *testing.T) {
	runLinkRepositoryTest(t, newMemoryRepository)
}

func TestLinkRepositoryFirestore(t *testing.T) {
	runLinkRepositoryTest(t, newFirestoreRepository)
}

func TestLinkNotFoundSentinel(t *testing.T) {
	repo := memory.New()
	err := repo.Link().SetRemoteEvent(context.Background(), types.NewEventID(), types.NewRoleID(), "AAMk", "")
	gt.Bool(t, errors.Is(err, memory.ErrNotFound)).True()
}
