// internal/protocol/messages_test.go
package protocol

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palace-game/palace/internal/game"
)

func TestDecodeBareTag(t *testing.T) {
	msg, err := Decode([]byte(`"ListLobbies"`))
	require.NoError(t, err)
	assert.Equal(t, TagListLobbies, msg.Tag)
}

func TestDecodeTagged(t *testing.T) {
	lobby := uuid.New()
	player := uuid.New()
	raw := `{"MakePlay":{"lobby_id":"` + lobby.String() + `","player_id":"` + player.String() +
		`","cards":[{"value":"Ten","suit":"Hearts"},{"value":"Ten","suit":"Spades"}]}}`

	msg, err := Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, TagMakePlay, msg.Tag)
	require.NotNil(t, msg.MakePlay)
	assert.Equal(t, lobby, msg.MakePlay.LobbyID)
	assert.Equal(t, player, msg.MakePlay.PlayerID)
	assert.Equal(t, []game.Card{
		{Value: game.Ten, Suit: game.Hearts},
		{Value: game.Ten, Suit: game.Spades},
	}, msg.MakePlay.Cards)
}

func TestDecodeChooseFaceup(t *testing.T) {
	raw := `{"ChooseFaceup":{"lobby_id":"` + uuid.Nil.String() + `","player_id":"` + uuid.Nil.String() +
		`","card_one":{"value":"Ace","suit":"Clubs"},"card_two":{"value":"King","suit":"Clubs"},` +
		`"card_three":{"value":"Queen","suit":"Clubs"}}}`

	msg, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, msg.ChooseFaceup)
	assert.Equal(t, game.Card{Value: game.Queen, Suit: game.Clubs}, msg.ChooseFaceup.CardThree)
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want error
	}{
		"unknown tag":      {`{"Snoop":{}}`, ErrUnknownTag},
		"unknown bare tag": {`"Snoop"`, ErrUnknownTag},
		"two keys":         {`{"StartGame":{},"MakePlay":{}}`, ErrBadEnvelope},
		"not json":         {`}{`, ErrBadEnvelope},
		"bad payload":      {`{"MakePlay":{"cards":"nope"}}`, ErrBadEnvelope},
		"bad card rank":    {`{"MakePlay":{"cards":[{"value":"Joker","suit":"Clubs"}]}}`, ErrBadEnvelope},
		"array envelope":   {`[1,2]`, ErrBadEnvelope},
		"payload for bare": {`{"ListLobbies":{}}`, ErrUnknownTag},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestResultMarshal(t *testing.T) {
	b, err := Encode(TagNewLobbyResponse, Ok(NewLobbyResponse{MaxPlayers: 4}))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"NewLobbyResponse":{"Ok":{"player_id":"00000000-0000-0000-0000-000000000000","lobby_id":"00000000-0000-0000-0000-000000000000","max_players":4}}}`,
		string(b))

	b, err = Encode(TagMakePlayResponse, Err(CodeNotYourTurn))
	require.NoError(t, err)
	assert.JSONEq(t, `{"MakePlayResponse":{"Err":"NotYourTurn"}}`, string(b))
}

func TestEncodeBareTag(t *testing.T) {
	b, err := Encode(TagInternalServerError, nil)
	require.NoError(t, err)
	assert.Equal(t, `"InternalServerError"`, string(b))
}
