package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/thegreathir/jigarpich/internal/archive"
	"github.com/thegreathir/jigarpich/internal/engine"
	"github.com/thegreathir/jigarpich/internal/hub"
)

// Rooms is what the HTTP surface needs from the game.
type Rooms interface {
	CreateRoom(ctx context.Context, cfg engine.Config) (hub.RoomID, error)
	Status(ctx context.Context, id hub.RoomID) (string, error)
}

type Results interface {
	Recent(ctx context.Context, limit int) ([]archive.GameRecord, error)
}

type createRoomReq struct {
	Teams        int  `json:"teams"`
	Rounds       int  `json:"rounds"`
	RoundMinutes int  `json:"round_minutes"`
	Taboo        bool `json:"taboo"`
}

type roomRes struct {
	Code   string `json:"code"`
	Join   string `json:"join,omitempty"`
	Status string `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func CreateRoom(rooms Rooms, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoomReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		cfg := engine.Config{
			Teams:         req.Teams,
			Rounds:        req.Rounds,
			RoundDuration: time.Duration(req.RoundMinutes) * time.Minute,
			TabooWords:    req.Taboo,
		}

		id, err := rooms.CreateRoom(r.Context(), cfg)
		switch {
		case errors.Is(err, engine.ErrInvalidConfig):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			log.Error("failed to create room", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create room")
			return
		}

		writeJSON(w, http.StatusCreated, roomRes{Code: id.String(), Join: "/join " + id.String()})
	}
}

func GetRoom(rooms Rooms) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := hub.ParseRoomID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad room id")
			return
		}
		status, err := rooms.Status(r.Context(), id)
		switch {
		case errors.Is(err, hub.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, "room not found")
			return
		case err != nil:
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, roomRes{Code: id.String(), Status: status})
	}
}

// ListResults serves GET /results?limit=N. A nil archive answers 503.
func ListResults(results Results, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if results == nil {
			writeError(w, http.StatusServiceUnavailable, "results archive disabled")
			return
		}
		limit := archive.DefaultLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "bad limit")
				return
			}
			limit = n
		}

		games, err := results.Recent(r.Context(), limit)
		if err != nil {
			log.Error("failed to list results", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list results")
			return
		}
		if games == nil {
			games = []archive.GameRecord{}
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
