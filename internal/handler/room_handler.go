package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/req"
	"chatrelay/internal/pkg/resp"
)

// AvailabilityInput asks whether username could join room right now.
type AvailabilityInput struct {
	Username string `json:"username" validate:"required"`
	Room     string `json:"room" validate:"required"`
}

// AvailabilityResult answers an AvailabilityInput with the normalized names.
type AvailabilityResult struct {
	Username  string `json:"username"`
	Room      string `json:"room"`
	Available bool   `json:"available"`
}

// HandleListRooms lists every room that currently has members.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := deps.Hub.Registry().Rooms()
		resp.RespondSuccess(w, r, map[string]any{
			"rooms": rooms,
			"total": lo.SumBy(rooms, func(s chat.RoomSummary) int { return s.Members }),
		})
	}
}

// HandleGetRoom returns the roster of one room. Unknown rooms have an empty roster.
func HandleGetRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := chat.Normalize(chi.URLParam(r, "room"))
		if room == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		resp.RespondSuccess(w, r, deps.Hub.Router().RoomData(room))
	}
}

// HandleCheckAvailability reports whether a join with the given names would be accepted.
func HandleCheckAvailability(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input AvailabilityInput
		if customErr := req.BindAndValidate(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		username := chat.Normalize(input.Username)
		room := chat.Normalize(input.Room)
		if username == "" || room == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUsernameRoomRequired))
			return
		}

		resp.RespondSuccess(w, r, AvailabilityResult{
			Username:  username,
			Room:      room,
			Available: !lo.Contains(deps.Hub.Registry().Usernames(room), username),
		})
	}
}
