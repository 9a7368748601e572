// internal/protocol/messages.go
//
// Wire format: every frame is a JSON value. A message without a payload is a
// bare string tag ("ListLobbies"); everything else is a single-key object
// {"Tag": payload}. Responses wrap their payload as {"Ok": ...} or
// {"Err": "Code"}.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/palace-game/palace/internal/game"
)

// Inbound tags.
const (
	TagNewLobby     = "NewLobby"
	TagJoinLobby    = "JoinLobby"
	TagListLobbies  = "ListLobbies"
	TagStartGame    = "StartGame"
	TagChooseFaceup = "ChooseFaceup"
	TagMakePlay     = "MakePlay"
	TagReconnect    = "Reconnect"
)

// Outbound tags.
const (
	TagNewLobbyResponse     = "NewLobbyResponse"
	TagJoinLobbyResponse    = "JoinLobbyResponse"
	TagListLobbiesResponse  = "ListLobbiesResponse"
	TagStartGameResponse    = "StartGameResponse"
	TagChooseFaceupResponse = "ChooseFaceupResponse"
	TagMakePlayResponse     = "MakePlayResponse"
	TagReconnectResponse    = "ReconnectResponse"

	TagGameStartedEvent     = "GameStartedEvent"
	TagPublicGameStateEvent = "PublicGameStateEvent"
	TagHandEvent            = "HandEvent"
	TagPlayerJoinEvent      = "PlayerJoinEvent"
	TagGameCompleteEvent    = "GameCompleteEvent"

	TagInternalServerError = "InternalServerError"
)

// Error codes carried in Err responses.
const (
	CodeLessThanTwoMaxPlayers = "LessThanTwoMaxPlayers"
	CodeEmptyLobbyName        = "EmptyLobbyName"
	CodeEmptyPlayerName       = "EmptyPlayerName"
	CodeLobbyNotFound         = "LobbyNotFound"
	CodeLobbyFull             = "LobbyFull"
	CodeBadPassword           = "BadPassword"
	CodeGameInProgress        = "GameInProgress"
	CodeNotLobbyOwner         = "NotLobbyOwner"
	CodeLessThanTwoPlayers    = "LessThanTwoPlayers"
	CodeGameNotStarted        = "GameNotStarted"
	CodePlayerNotFound        = "PlayerNotFound"
	CodeNotYourTurn           = "NotYourTurn"
	CodeWrongPhase            = "WrongPhase"
	CodeCardNotOwned          = "CardNotOwned"
	CodeMixedRanks            = "MixedRanks"
	CodeIllegalAgainstPile    = "IllegalAgainstPile"
	CodeGameFinished          = "GameFinished"
)

// Envelope decode failures. The server closes the connection on either.
var (
	ErrBadEnvelope = errors.New("protocol: malformed message envelope")
	ErrUnknownTag  = errors.New("protocol: unknown message tag")
)

type NewLobbyMessage struct {
	MaxPlayers uint8  `json:"max_players"`
	Password   string `json:"password"`
	LobbyName  string `json:"lobby_name"`
	PlayerName string `json:"player_name"`
}

type NewLobbyResponse struct {
	PlayerID   uuid.UUID `json:"player_id"`
	LobbyID    uuid.UUID `json:"lobby_id"`
	MaxPlayers uint8     `json:"max_players"`
}

type JoinLobbyMessage struct {
	LobbyID    uuid.UUID `json:"lobby_id"`
	PlayerName string    `json:"player_name"`
	Password   string    `json:"password"`
}

type JoinLobbyResponse struct {
	PlayerID     uuid.UUID `json:"player_id"`
	LobbyPlayers []string  `json:"lobby_players"`
	MaxPlayers   uint8     `json:"max_players"`
}

// LobbySummary is one row of a ListLobbiesResponse.
type LobbySummary struct {
	LobbyID     uuid.UUID `json:"lobby_id"`
	Name        string    `json:"name"`
	CurPlayers  uint8     `json:"cur_players"`
	MaxPlayers  uint8     `json:"max_players"`
	Started     bool      `json:"started"`
	HasPassword bool      `json:"has_password"`
	Owner       string    `json:"owner"`
	AgeSeconds  uint64    `json:"age"`
}

type StartGameMessage struct {
	LobbyID  uuid.UUID `json:"lobby_id"`
	PlayerID uuid.UUID `json:"player_id"`
}

type ChooseFaceupMessage struct {
	LobbyID   uuid.UUID `json:"lobby_id"`
	PlayerID  uuid.UUID `json:"player_id"`
	CardOne   game.Card `json:"card_one"`
	CardTwo   game.Card `json:"card_two"`
	CardThree game.Card `json:"card_three"`
}

type MakePlayMessage struct {
	LobbyID  uuid.UUID   `json:"lobby_id"`
	PlayerID uuid.UUID   `json:"player_id"`
	Cards    []game.Card `json:"cards"`
}

type ReconnectMessage struct {
	PlayerID uuid.UUID `json:"player_id"`
	LobbyID  uuid.UUID `json:"lobby_id"`
}

type ReconnectResponse struct {
	MaxPlayers uint8 `json:"max_players"`
	InGame     bool  `json:"in_game"`
}

// GameStartedEvent announces the deal: seat names and the fixed initial
// turn order.
type GameStartedEvent struct {
	Players   map[uuid.UUID]string `json:"players"`
	TurnOrder []uuid.UUID          `json:"turn_order"`
}

// HandEvent is private to one player: the exact contents of their zones.
type HandEvent = game.PlayerView

// PublicGameStateEvent carries the all-players-visible snapshot.
type PublicGameStateEvent = game.PublicState

type PlayerJoinEvent struct {
	PlayerID        uuid.UUID `json:"player_id"`
	NewPlayerName   string    `json:"new_player_name"`
	TotalNumPlayers uint8     `json:"total_num_players"`
}

type GameCompleteEvent struct {
	FinishOrder []uuid.UUID `json:"finish_order"`
}

// ClientMessage is one decoded inbound frame. Tag is always set; exactly the
// matching payload pointer is non-nil (ListLobbies carries none).
type ClientMessage struct {
	Tag string

	NewLobby     *NewLobbyMessage
	JoinLobby    *JoinLobbyMessage
	StartGame    *StartGameMessage
	ChooseFaceup *ChooseFaceupMessage
	MakePlay     *MakePlayMessage
	Reconnect    *ReconnectMessage
}

// Decode parses one inbound frame.
func Decode(data []byte) (ClientMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var tag string
		if err := json.Unmarshal(trimmed, &tag); err != nil {
			return ClientMessage{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
		}
		if tag != TagListLobbies {
			return ClientMessage{}, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
		}
		return ClientMessage{Tag: tag}, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if len(envelope) != 1 {
		return ClientMessage{}, fmt.Errorf("%w: want exactly one tag, got %d", ErrBadEnvelope, len(envelope))
	}

	var tag string
	var payload json.RawMessage
	for k, v := range envelope {
		tag, payload = k, v
	}

	msg := ClientMessage{Tag: tag}
	var dst any
	switch tag {
	case TagNewLobby:
		msg.NewLobby = &NewLobbyMessage{}
		dst = msg.NewLobby
	case TagJoinLobby:
		msg.JoinLobby = &JoinLobbyMessage{}
		dst = msg.JoinLobby
	case TagStartGame:
		msg.StartGame = &StartGameMessage{}
		dst = msg.StartGame
	case TagChooseFaceup:
		msg.ChooseFaceup = &ChooseFaceupMessage{}
		dst = msg.ChooseFaceup
	case TagMakePlay:
		msg.MakePlay = &MakePlayMessage{}
		dst = msg.MakePlay
	case TagReconnect:
		msg.Reconnect = &ReconnectMessage{}
		dst = msg.Reconnect
	default:
		return ClientMessage{}, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %s payload: %v", ErrBadEnvelope, tag, err)
	}
	return msg, nil
}

// Result is an operation outcome, marshaled as {"Ok": payload} or
// {"Err": "Code"}.
type Result struct {
	ok   any
	code string
}

func Ok(payload any) Result   { return Result{ok: payload} }
func Err(code string) Result  { return Result{code: code} }
func (r Result) IsErr() bool  { return r.code != "" }
func (r Result) Code() string { return r.code }

func (r Result) MarshalJSON() ([]byte, error) {
	if r.code != "" {
		return json.Marshal(map[string]string{"Err": r.code})
	}
	return json.Marshal(map[string]any{"Ok": r.ok})
}

// Encode builds one outbound frame: a bare tag when payload is nil, else the
// single-key envelope.
func Encode(tag string, payload any) ([]byte, error) {
	if payload == nil {
		return json.Marshal(tag)
	}
	return json.Marshal(map[string]any{tag: payload})
}
