package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/usecase"
	"github.com/gighall/calsync/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

// roomsHandler serves the multi-room availability dashboard. Rooms come
// from the configured directory; the client may narrow to a subset with
// ?emails=a,b and page through it with ?offset=N&batch=M. The window
// defaults to today through 30 days out.
func roomsHandler(uc *usecase.UseCases) http.HandlerFunc {
	type response struct {
		Rooms  []*usecase.RoomAvailability `json:"rooms"`
		Offset int                         `json:"offset"`
		Total  int                         `json:"total"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if uc.Room == nil {
			errutil.HandleHTTP(r.Context(), w, goerr.New("room dashboard is not configured"),
				"room dashboard is not configured", http.StatusNotFound)
			return
		}

		query := r.URL.Query()

		var emails []string
		if raw := query.Get("emails"); raw != "" {
			for _, email := range strings.Split(raw, ",") {
				if email = strings.TrimSpace(email); email != "" {
					emails = append(emails, email)
				}
			}
		}

		window, err := parseWindow(query.Get("start"), query.Get("end"))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err,
				"invalid time window", http.StatusBadRequest)
			return
		}

		offset, batch, err := parsePaging(query.Get("offset"), query.Get("batch"))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err,
				"invalid paging parameters", http.StatusBadRequest)
			return
		}

		availability, err := uc.Room.Availability(r.Context(), emails, window)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err,
				"failed to fetch room availability", http.StatusBadGateway)
			return
		}

		total := len(availability)
		availability = page(availability, offset, batch)

		respondJSON(w, r, http.StatusOK, response{
			Rooms:  availability,
			Offset: offset,
			Total:  total,
		})
	}
}

func parseWindow(start, end string) (model.RoomWindow, error) {
	var window model.RoomWindow

	if start != "" {
		parsed, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return window, goerr.Wrap(err, "invalid start time", goerr.V("start", start))
		}
		window.Start = parsed
	}
	if end != "" {
		parsed, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return window, goerr.Wrap(err, "invalid end time", goerr.V("end", end))
		}
		window.End = parsed
	}

	if (window.Start.IsZero()) != (window.End.IsZero()) {
		return window, goerr.New("start and end must be given together")
	}
	if !window.Start.IsZero() && !window.End.After(window.Start) {
		return window, goerr.New("end must be after start")
	}

	return window, nil
}

func parsePaging(rawOffset, rawBatch string) (offset, batch int, err error) {
	if rawOffset != "" {
		offset, err = strconv.Atoi(rawOffset)
		if err != nil || offset < 0 {
			return 0, 0, goerr.New("invalid offset", goerr.V("offset", rawOffset))
		}
	}
	if rawBatch != "" {
		batch, err = strconv.Atoi(rawBatch)
		if err != nil || batch < 0 {
			return 0, 0, goerr.New("invalid batch", goerr.V("batch", rawBatch))
		}
	}
	return offset, batch, nil
}

// page slices the availability list; batch 0 means no limit
func page(rooms []*usecase.RoomAvailability, offset, batch int) []*usecase.RoomAvailability {
	if offset >= len(rooms) {
		return []*usecase.RoomAvailability{}
	}
	rooms = rooms[offset:]
	if batch > 0 && batch < len(rooms) {
		rooms = rooms[:batch]
	}
	return rooms
}
