package http

import (
	"net/http"

	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/gighall/calsync/pkg/usecase"
	"github.com/gighall/calsync/pkg/utils/errutil"
	"github.com/go-chi/chi/v5"
)

// syncEventHandler pushes one event to the role's calendar right away,
// outside the queue. The client sees a generic failure reason only; the
// detail stays in the logs.
func syncEventHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID := types.RoleID(chi.URLParam(r, "roleID"))
		eventID := types.EventID(chi.URLParam(r, "eventID"))

		action := types.SyncActionUpdate
		if raw := r.URL.Query().Get("action"); raw != "" {
			parsed, err := types.ParseSyncAction(raw)
			if err != nil {
				errutil.HandleHTTP(r.Context(), w, err,
					"invalid sync action", http.StatusBadRequest)
				return
			}
			action = parsed
		}

		if err := uc.Sync.SyncEvent(r.Context(), eventID, roleID, action); err != nil {
			errutil.HandleHTTP(r.Context(), w, err,
				"failed to sync event", http.StatusBadGateway)
			return
		}

		respondJSON(w, r, http.StatusOK, map[string]bool{"synced": true})
	}
}

// syncRoleHandler backfills every unsynced event of the role
func syncRoleHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID := types.RoleID(chi.URLParam(r, "roleID"))

		report, err := uc.Sync.SyncAll(r.Context(), roleID)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err,
				"failed to sync calendar", http.StatusBadGateway)
			return
		}

		respondJSON(w, r, http.StatusOK, report)
	}
}
