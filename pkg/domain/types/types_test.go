package types_test

import (
	"testing"

	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestSyncAction(t *testing.T) {
	t.Run("valid actions", func(t *testing.T) {
		for _, action := range types.AllSyncActions() {
			gt.Bool(t, action.IsValid()).True()
		}
	})

	t.Run("invalid action", func(t *testing.T) {
		gt.Bool(t, types.SyncAction("upsert").IsValid()).False()
	})

	t.Run("parse valid action", func(t *testing.T) {
		action, err := types.ParseSyncAction("delete")
		gt.NoError(t, err).Required()
		gt.Value(t, action).Equal(types.SyncActionDelete)
	})

	t.Run("parse invalid action", func(t *testing.T) {
		_, err := types.ParseSyncAction("destroy")
		gt.Value(t, err).NotNil()
	})
}

func TestSyncDirection(t *testing.T) {
	t.Run("valid directions", func(t *testing.T) {
		for _, dir := range types.AllSyncDirections() {
			gt.Bool(t, dir.IsValid()).True()
		}
	})

	t.Run("normalize empty to none", func(t *testing.T) {
		gt.Value(t, types.SyncDirection("").Normalize()).Equal(types.SyncDirectionNone)
	})

	t.Run("to and both push outward", func(t *testing.T) {
		gt.Bool(t, types.SyncDirectionTo.SyncsTo()).True()
		gt.Bool(t, types.SyncDirectionBoth.SyncsTo()).True()
		gt.Bool(t, types.SyncDirectionFrom.SyncsTo()).False()
		gt.Bool(t, types.SyncDirectionNone.SyncsTo()).False()
	})

	t.Run("from and both pull inward", func(t *testing.T) {
		gt.Bool(t, types.SyncDirectionFrom.SyncsFrom()).True()
		gt.Bool(t, types.SyncDirectionBoth.SyncsFrom()).True()
		gt.Bool(t, types.SyncDirectionTo.SyncsFrom()).False()
	})
}

func TestIDs(t *testing.T) {
	t.Run("generated IDs are unique", func(t *testing.T) {
		gt.Value(t, types.NewAccountID()).NotEqual(types.NewAccountID())
		gt.Value(t, types.NewRoleID()).NotEqual(types.NewRoleID())
		gt.Value(t, types.NewEventID()).NotEqual(types.NewEventID())
	})

	t.Run("empty IDs fail validation", func(t *testing.T) {
		gt.Value(t, types.AccountID("").Validate()).NotNil()
		gt.Value(t, types.RoleID("").Validate()).NotNil()
		gt.Value(t, types.EventID("").Validate()).NotNil()
		gt.NoError(t, types.NewAccountID().Validate())
	})
}
