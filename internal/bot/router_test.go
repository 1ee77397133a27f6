package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thegreathir/jigarpich/internal/command"
	"github.com/thegreathir/jigarpich/internal/engine"
	"github.com/thegreathir/jigarpich/internal/game"
	"github.com/thegreathir/jigarpich/internal/hub"
)

type mockGame struct{ mock.Mock }

func (m *mockGame) CreateRoom(ctx context.Context, cfg engine.Config) (hub.RoomID, error) {
	args := m.Called(ctx, cfg)
	return args.Get(0).(hub.RoomID), args.Error(1)
}

func (m *mockGame) Join(ctx context.Context, id hub.RoomID, p engine.Player) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *mockGame) ChooseTeam(ctx context.Context, id hub.RoomID, p engine.Player, team int) error {
	return m.Called(ctx, id, p, team).Error(0)
}

func (m *mockGame) ShowTeams(ctx context.Context, id hub.RoomID, p engine.Player) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *mockGame) Play(ctx context.Context, id hub.RoomID, p engine.Player) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *mockGame) StartRound(ctx context.Context, id hub.RoomID, p engine.Player) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *mockGame) Correct(ctx context.Context, id hub.RoomID, p engine.Player) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *mockGame) Skip(ctx context.Context, id hub.RoomID, p engine.Player) error {
	return m.Called(ctx, id, p).Error(0)
}

type inbox struct{ texts []string }

func (b *inbox) Send(_ context.Context, _ engine.PlayerID, text string, _ game.Keyboard) (engine.Prompt, error) {
	b.texts = append(b.texts, text)
	return engine.Prompt{}, nil
}

func (b *inbox) EditKeyboard(context.Context, engine.Prompt, game.Keyboard) error { return nil }

var alice = engine.Player{ID: "1", Name: "Alice"}

func newRouter(t *testing.T) (*Router, *mockGame, *inbox) {
	g := &mockGame{}
	b := &inbox{}
	t.Cleanup(func() { g.AssertExpectations(t) })
	return NewRouter(g, b, zaptest.NewLogger(t)), g, b
}

func TestHandleText_NewDialogueCreatesRoom(t *testing.T) {
	r, g, b := newRouter(t)
	ctx := context.Background()

	cfg := engine.Config{Teams: 2, Rounds: 3, RoundDuration: 4 * time.Minute}
	g.On("CreateRoom", ctx, cfg).Return(hub.RoomID(48213), nil).Once()

	for _, in := range []string{"/new", "2", "3", "4", "n"} {
		require.NoError(t, r.HandleText(ctx, alice, in))
	}

	require.Len(t, b.texts, 7)
	assert.Equal(t, "Room created! Forward following message to join:", b.texts[5])
	assert.Equal(t, "/join 48213", b.texts[6])
}

func TestHandleText_Join(t *testing.T) {
	r, g, b := newRouter(t)
	ctx := context.Background()

	g.On("Join", ctx, hub.RoomID(48213), alice).Return(nil).Once()
	require.NoError(t, r.HandleText(ctx, alice, "/join 48213"))

	g.On("Join", ctx, hub.RoomID(11111), alice).Return(hub.ErrRoomNotFound).Once()
	assert.NoError(t, r.HandleText(ctx, alice, "/join 11111"), "reported rejections are not errors")

	require.NoError(t, r.HandleText(ctx, alice, "/join abc"))
	assert.Equal(t, []string{"Room number is wrong!"}, b.texts)
}

func TestHandleText_HelpAndUnknown(t *testing.T) {
	r, _, b := newRouter(t)
	ctx := context.Background()

	require.NoError(t, r.HandleText(ctx, alice, "/help"))
	require.NoError(t, r.HandleText(ctx, alice, "hello"))
	err := r.HandleText(ctx, alice, "/nope")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	assert.Equal(t, []string{HelpText, HelpText, HelpText}, b.texts)
}

func TestHandleCallback_Dispatch(t *testing.T) {
	const id = hub.RoomID(48213)
	tests := []struct {
		data   string
		method string
		args   []any
	}{
		{command.SerializeJoin(id, 1), "ChooseTeam", []any{id, alice, 1}},
		{command.Serialize(command.GetTeams, id), "ShowTeams", []any{id, alice}},
		{command.Serialize(command.Play, id), "Play", []any{id, alice}},
		{command.Serialize(command.Start, id), "StartRound", []any{id, alice}},
		{command.Serialize(command.Correct, id), "Correct", []any{id, alice}},
		{command.Serialize(command.Skip, id), "Skip", []any{id, alice}},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			r, g, _ := newRouter(t)
			ctx := context.Background()
			g.On(tt.method, append([]any{ctx}, tt.args...)...).Return(nil).Once()
			assert.NoError(t, r.HandleCallback(ctx, alice, tt.data))
		})
	}
}

func TestHandleCallback_Errors(t *testing.T) {
	r, g, _ := newRouter(t)
	ctx := context.Background()

	err := r.HandleCallback(ctx, alice, "dance 48213")
	assert.ErrorIs(t, err, command.ErrMalformed)

	g.On("Play", ctx, hub.RoomID(48213), alice).Return(engine.ErrNotBalancedTeams).Once()
	assert.NoError(t, r.HandleCallback(ctx, alice, "play 48213"))

	g.On("StartRound", ctx, hub.RoomID(48213), alice).Return(engine.ErrRoundInProgress).Once()
	assert.NoError(t, r.HandleCallback(ctx, alice, "start 48213"))

	boom := errors.New("boom")
	g.On("Correct", ctx, hub.RoomID(48213), alice).Return(boom).Once()
	assert.ErrorIs(t, r.HandleCallback(ctx, alice, "correct 48213"), boom)
}
