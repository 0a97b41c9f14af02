package http

import (
	"net/http"

	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/gighall/calsync/pkg/usecase"
	"github.com/gighall/calsync/pkg/utils/errutil"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
)

func listGroupsHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			errutil.HandleHTTP(r.Context(), w, goerr.New("missing account_id"),
				"account_id is required", http.StatusBadRequest)
			return
		}

		groups, err := uc.Group.List(r.Context(), types.AccountID(accountID))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err,
				"failed to list groups", http.StatusBadGateway)
			return
		}

		respondJSON(w, r, http.StatusOK, map[string]any{"groups": groups})
	}
}

func getGroupHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			errutil.HandleHTTP(r.Context(), w, goerr.New("missing account_id"),
				"account_id is required", http.StatusBadRequest)
			return
		}

		group, members, err := uc.Group.Get(r.Context(), types.AccountID(accountID), chi.URLParam(r, "groupID"))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err,
				"failed to get group", http.StatusBadGateway)
			return
		}

		respondJSON(w, r, http.StatusOK, map[string]any{
			"group":   group,
			"members": members,
		})
	}
}
