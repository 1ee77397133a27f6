package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		want    Command
		wantErr bool
	}{
		{name: "join", data: "join 12345 3", want: Command{Kind: Join, Room: 12345, Team: 3}},
		{name: "get teams", data: "get_teams 12345", want: Command{Kind: GetTeams, Room: 12345}},
		{name: "play", data: "play 10000", want: Command{Kind: Play, Room: 10000}},
		{name: "start", data: "start 99999", want: Command{Kind: Start, Room: 99999}},
		{name: "correct", data: "correct 55555", want: Command{Kind: Correct, Room: 55555}},
		{name: "skip", data: "skip 55555", want: Command{Kind: Skip, Room: 55555}},
		{name: "join without team", data: "join 12345", wantErr: true},
		{name: "negative team", data: "join 12345 -1", wantErr: true},
		{name: "extra field", data: "skip 12345 1", wantErr: true},
		{name: "bad room", data: "skip abc", wantErr: true},
		{name: "unknown", data: "dance 12345", wantErr: true},
		{name: "empty", data: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.data)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.data, got.String())
		})
	}
}

func TestSerialize(t *testing.T) {
	assert.Equal(t, "correct 12345", Serialize(Correct, 12345))
	assert.Equal(t, "join 12345 0", SerializeJoin(12345, 0))
}
