package archive

import (
	"context"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/thegreathir/jigarpich/internal/engine"
)

var store *Archive

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine3.22",
		postgres.WithDatabase("jigarpich"),
		postgres.WithUsername("jigarpich"),
		postgres.WithPassword("jigarpich"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	store, err = Open(dsn, zap.NewNop())
	if err != nil {
		panic(err)
	}

	code := m.Run()

	_ = store.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func standingsFixture() []engine.Standing {
	return []engine.Standing{
		{
			Team:    "🔴",
			Members: [engine.TeamSize]engine.Player{{ID: "1", Name: "Alice"}, {ID: "2", Name: "Bob"}},
			Elapsed: 95 * time.Second,
		},
		{
			Team:    "🔵",
			Members: [engine.TeamSize]engine.Player{{ID: "3", Name: "Carol"}, {ID: "4", Name: "Dave"}},
			Elapsed: 80 * time.Second,
			Leading: true,
		},
	}
}

func TestArchive(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("RecordGame", func(t *testing.T) {
		store.now = func() time.Time { return base }
		require.NoError(t, store.RecordGame(ctx, "48213", 2, standingsFixture()))

		store.now = func() time.Time { return base.Add(time.Hour) }
		require.NoError(t, store.RecordGame(ctx, "11111", 1, standingsFixture()[:1]))
	})

	t.Run("Recent_NewestFirst", func(t *testing.T) {
		games, err := store.Recent(ctx, 0)
		require.NoError(t, err)
		require.Len(t, games, 2)

		assert.Equal(t, "11111", games[0].RoomID)
		assert.Equal(t, "48213", games[1].RoomID)

		older := games[1]
		assert.Equal(t, 2, older.Rounds)
		assert.True(t, older.FinishedAt.Equal(base))
		require.Len(t, older.Teams, 2)
		assert.Equal(t, "Alice & Bob", older.Teams[0].Members)
		assert.Equal(t, int64(95_000), older.Teams[0].ElapsedMs)
		assert.False(t, older.Teams[0].Leading)
		assert.Equal(t, "🔵", older.Teams[1].Label)
		assert.True(t, older.Teams[1].Leading)
	})

	t.Run("Recent_Limit", func(t *testing.T) {
		games, err := store.Recent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, games, 1)
		assert.Equal(t, "11111", games[0].RoomID)
	})
}
