package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/gighall/calsync/pkg/domain/interfaces"
	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func runEventRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create and Get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		starts := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
		created, err := repo.Event().Create(ctx, &model.Event{
			Name:          "Ortega Wedding",
			Description:   "<p>Reception in the main hall</p>",
			StartsAt:      starts,
			DurationHours: 5,
			VenueAddress:  "12 Canal St",
		})
		gt.NoError(t, err).Required()
		gt.String(t, string(created.ID)).NotEqual("")

		got, err := repo.Event().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Ortega Wedding")
		gt.Value(t, got.EndDateTime()).Equal(starts.Add(5 * time.Hour))
	})

	t.Run("Update preserves CreatedAt", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Event().Create(ctx, &model.Event{Name: "Draft", StartsAt: time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)})
		gt.NoError(t, err).Required()

		created.Name = "Confirmed"
		gt.NoError(t, repo.Event().Update(ctx, created)).Required()

		got, err := repo.Event().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Confirmed")
		gt.Value(t, got.CreatedAt.Unix()).Equal(created.CreatedAt.Unix())
	})

	t.Run("Delete and missing Get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Event().Create(ctx, &model.Event{Name: "Cancelled", StartsAt: time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)})
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Event().Delete(ctx, created.ID)).Required()
		_, err = repo.Event().Get(ctx, created.ID)
		gt.Value(t, err).NotNil()

		_, err = repo.Event().Get(ctx, types.NewEventID())
		gt.Value(t, err).NotNil()
	})
}

func TestEventRepositoryMemory(t *testing.T) {
	runEventRepositoryTest(t, newMemoryRepository)
}

func TestEventRepositoryFirestore(t *testing.T) {
	runEventRepositoryTest(t, newFirestoreRepository)
}
