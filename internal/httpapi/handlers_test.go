package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thegreathir/jigarpich/internal/archive"
	"github.com/thegreathir/jigarpich/internal/engine"
	"github.com/thegreathir/jigarpich/internal/hub"
)

type mockRooms struct{ mock.Mock }

func (m *mockRooms) CreateRoom(ctx context.Context, cfg engine.Config) (hub.RoomID, error) {
	args := m.Called(cfg)
	return args.Get(0).(hub.RoomID), args.Error(1)
}

func (m *mockRooms) Status(ctx context.Context, id hub.RoomID) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

type fakeResults []archive.GameRecord

func (f fakeResults) Recent(_ context.Context, limit int) ([]archive.GameRecord, error) {
	return f[:min(limit, len(f))], nil
}

func newHandler(t *testing.T, rooms Rooms, results Results) http.Handler {
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	return SetupRoutes(Deps{Rooms: rooms, Results: results, WS: ws, Log: zaptest.NewLogger(t)})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateRoom(t *testing.T) {
	rooms := &mockRooms{}
	defer rooms.AssertExpectations(t)
	h := newHandler(t, rooms, nil)

	cfg := engine.Config{Teams: 3, Rounds: 2, RoundDuration: 5 * time.Minute, TabooWords: true}
	rooms.On("CreateRoom", cfg).Return(hub.RoomID(48213), nil).Once()

	rec := do(h, http.MethodPost, "/rooms", `{"teams":3,"rounds":2,"round_minutes":5,"taboo":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res roomRes
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "48213", res.Code)
	assert.Equal(t, "/join 48213", res.Join)
}

func TestCreateRoom_BadInput(t *testing.T) {
	rooms := &mockRooms{}
	defer rooms.AssertExpectations(t)
	h := newHandler(t, rooms, nil)

	rec := do(h, http.MethodPost, "/rooms", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cfg := engine.Config{Teams: 9, Rounds: 1, RoundDuration: time.Minute}
	rooms.On("CreateRoom", cfg).Return(hub.RoomID(0), cfg.Validate()).Once()
	rec = do(h, http.MethodPost, "/rooms", `{"teams":9,"rounds":1,"round_minutes":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "teams must be between 2 and 7")
}

func TestGetRoom(t *testing.T) {
	rooms := &mockRooms{}
	defer rooms.AssertExpectations(t)
	h := newHandler(t, rooms, nil)

	rooms.On("Status", hub.RoomID(48213)).Return("🔴: Alice\n🔵: -", nil).Once()
	rooms.On("Status", hub.RoomID(11111)).Return("", hub.ErrRoomNotFound).Once()

	rec := do(h, http.MethodGet, "/rooms/48213", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res roomRes
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "🔴: Alice\n🔵: -", res.Status)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/rooms/11111", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/rooms/abc", "").Code)
}

func TestListResults(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newHandler(t, &mockRooms{}, nil)
		assert.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodGet, "/results", "").Code)
	})

	t.Run("limit", func(t *testing.T) {
		h := newHandler(t, &mockRooms{}, fakeResults{{RoomID: "1"}, {RoomID: "2"}, {RoomID: "3"}})

		rec := do(h, http.MethodGet, "/results?limit=2", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var games []archive.GameRecord
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&games))
		assert.Len(t, games, 2)

		assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/results?limit=-1", "").Code)
	})

	t.Run("empty is a list", func(t *testing.T) {
		h := newHandler(t, &mockRooms{}, fakeResults{})
		rec := do(h, http.MethodGet, "/results", "")
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestHealthzAndWS(t *testing.T) {
	h := newHandler(t, &mockRooms{}, nil)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusTeapot, do(h, http.MethodGet, "/ws", "").Code)
}
