package http

import (
	"encoding/json"
	"net/http"

	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/gighall/calsync/pkg/usecase"
	"github.com/gighall/calsync/pkg/utils/errutil"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
)

// connectHandler redirects the browser to the Microsoft consent screen. The
// account ID rides along as the OAuth state parameter so the callback can
// attach the credential to the right account.
func connectHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			errutil.HandleHTTP(r.Context(), w, goerr.New("missing account_id"),
				"account_id is required", http.StatusBadRequest)
			return
		}

		http.Redirect(w, r, uc.Token.AuthURL(accountID), http.StatusFound)
	}
}

// callbackHandler completes the OAuth flow with the authorization code
func callbackHandler(uc *usecase.UseCases) http.HandlerFunc {
	type response struct {
		AccountID string `json:"account_id"`
		Email     string `json:"email"`
		Connected bool   `json:"connected"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		code := query.Get("code")
		state := query.Get("state")
		if code == "" || state == "" {
			errutil.HandleHTTP(r.Context(), w, goerr.New("missing code or state"),
				"invalid callback request", http.StatusBadRequest)
			return
		}

		account, err := uc.Token.HandleCallback(r.Context(), types.AccountID(state), code)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err,
				"failed to connect Microsoft account", http.StatusBadGateway)
			return
		}

		respondJSON(w, r, http.StatusOK, response{
			AccountID: string(account.ID),
			Email:     account.Email,
			Connected: account.Connected(),
		})
	}
}

func disconnectHandler(uc *usecase.UseCases) http.HandlerFunc {
	type request struct {
		AccountID string `json:"account_id"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid disconnect request"),
				"account_id is required", http.StatusBadRequest)
			return
		}

		if err := uc.Token.Disconnect(r.Context(), types.AccountID(req.AccountID)); err != nil {
			errutil.HandleHTTP(r.Context(), w, err,
				"failed to disconnect Microsoft account", http.StatusInternalServerError)
			return
		}

		respondJSON(w, r, http.StatusOK, map[string]bool{"disconnected": true})
	}
}

func calendarsHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			errutil.HandleHTTP(r.Context(), w, goerr.New("missing account_id"),
				"account_id is required", http.StatusBadRequest)
			return
		}

		calendars, err := uc.Token.ListCalendars(r.Context(), types.AccountID(accountID))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err,
				"failed to list calendars", http.StatusBadGateway)
			return
		}

		respondJSON(w, r, http.StatusOK, map[string]any{"calendars": calendars})
	}
}

// selectCalendarHandler binds the role to one of the account's calendars.
// An empty calendar ID selects the primary calendar.
func selectCalendarHandler(uc *usecase.UseCases) http.HandlerFunc {
	type request struct {
		CalendarID   string `json:"calendar_id"`
		CalendarName string `json:"calendar_name"`
		Direction    string `json:"direction"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		roleID := types.RoleID(chi.URLParam(r, "roleID"))

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid calendar selection request"),
				"invalid request body", http.StatusBadRequest)
			return
		}

		err := uc.Token.SelectCalendar(r.Context(), roleID,
			req.CalendarID, req.CalendarName, types.SyncDirection(req.Direction))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err,
				"failed to select calendar", http.StatusBadRequest)
			return
		}

		respondJSON(w, r, http.StatusOK, map[string]bool{"selected": true})
	}
}
