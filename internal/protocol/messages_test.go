package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(MsgGameStart, GameStartPayload{Seed: 42, Players: []string{"a", "b"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"game_start","payload":{"seed":42,"players":["a","b"]}}`, string(data))

	env, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, MsgGameStart, env.Type)

	var start GameStartPayload
	require.NoError(t, env.Into(&start))
	assert.Equal(t, int64(42), start.Seed)
	assert.Equal(t, []string{"a", "b"}, start.Players)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"type":`},
		{"no type", `{"payload":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestIntoWithoutPayload(t *testing.T) {
	env, err := Decode([]byte(`{"type":"player_dead"}`))
	require.NoError(t, err)

	p := PlayerDeadPayload{Level: 7}
	require.NoError(t, env.Into(&p))
	assert.Equal(t, 7, p.Level)

	env, err = Decode([]byte(`{"type":"ready","payload":{"ready":"yes"}}`))
	require.NoError(t, err)
	var ready ReadyPayload
	assert.Error(t, env.Into(&ready))
}
