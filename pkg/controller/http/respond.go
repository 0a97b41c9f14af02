package http

import (
	"encoding/json"
	"net/http"

	"github.com/gighall/calsync/pkg/utils/errutil"
	"github.com/gighall/calsync/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// respondJSON writes the value as a JSON response
func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"),
			"internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}
