// Package tm defines the Terraforming Mars replay schema consumed by the
// analysis pipeline. Games are read-only input: nothing downstream mutates
// a Game once it has been decoded.
package tm

import (
	"encoding/json"
	"strconv"
	"strings"
)

// GameState is the slice of the logged board state attached to each move.
// Generation is monotonic non-decreasing within a game.
type GameState struct {
	Generation int `json:"generation"`
}

// Move is one logged player action.
type Move struct {
	MoveNumber  int       `json:"move_number"`
	PlayerID    string    `json:"player_id"`
	Description string    `json:"description"`
	ActionType  string    `json:"action_type"`
	CardPlayed  string    `json:"card_played,omitempty"`
	GameState   GameState `json:"game_state"`
}

// Generation returns the generation the move was logged in.
func (m *Move) Generation() int {
	return m.GameState.Generation
}

// EloPoints is a rating value that tolerates malformed log data. Replay
// files occasionally carry rating fields as quoted strings or not at all;
// decoding never fails, the value falls back to 0 and OK reports whether
// the original field parsed.
type EloPoints struct {
	Value int
	OK    bool
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null.
func (e *EloPoints) UnmarshalJSON(data []byte) error {
	e.Value = 0
	e.OK = false

	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)

	if n, err := strconv.Atoi(s); err == nil {
		e.Value = n
		e.OK = true
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		e.Value = int(f)
		e.OK = true
	}
	return nil
}

// MarshalJSON writes the plain numeric value.
func (e EloPoints) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Value)
}

// EloData carries a player's rating at game start and the change the game
// produced.
type EloData struct {
	GameRank       EloPoints `json:"game_rank"`
	GameRankChange EloPoints `json:"game_rank_change"`
}

// StartingHand is the dealt opening selection for one player.
type StartingHand struct {
	Corporations []string `json:"corporations,omitempty"`
	Preludes     []string `json:"preludes,omitempty"`
	ProjectCards []string `json:"project_cards,omitempty"`
}

// Player is one seat in a game.
type Player struct {
	PlayerName   string        `json:"player_name"`
	Corporation  string        `json:"corporation"`
	FinalScore   int           `json:"final_score"`
	EloData      *EloData      `json:"elo_data,omitempty"`
	StartingHand *StartingHand `json:"starting_hand,omitempty"`
}

// Game is one full recorded play-through.
type Game struct {
	ReplayID          string             `json:"replay_id"`
	PlayerPerspective string             `json:"player_perspective"`
	Winner            string             `json:"winner"`
	Map               string             `json:"map"`
	PreludeOn         bool               `json:"prelude_on"`
	ColoniesOn        bool               `json:"colonies_on"`
	CorporateEraOn    bool               `json:"corporate_era_on"`
	DraftOn           bool               `json:"draft_on"`
	Players           map[string]*Player `json:"players"`
	Moves             []Move             `json:"moves"`

	// SourcePath is the file the game was decoded from, set by the loader.
	SourcePath string `json:"-"`
}

// PerspectivePlayer returns the player record statistics are computed from,
// or nil when the perspective id is absent from the player set.
func (g *Game) PerspectivePlayer() *Player {
	return g.Players[g.PlayerPerspective]
}

// PlayerNames returns the perspective player's display name and the
// opponent's. Either may be empty when the game record is incomplete.
func (g *Game) PlayerNames() (perspective, opponent string) {
	for id, p := range g.Players {
		if p == nil || p.PlayerName == "" {
			continue
		}
		if id == g.PlayerPerspective {
			perspective = p.PlayerName
		} else {
			opponent = p.PlayerName
		}
	}
	return perspective, opponent
}

// ClassifiedMove is one move that mentioned the analyzed card, together
// with the semantic label the classifier assigned. Derived data: it never
// outlives the game it came from except in aggregated form.
type ClassifiedMove struct {
	Description string `json:"description"`
	Generation  int    `json:"generation"`
	MoveNumber  int    `json:"move_number"`
	ActionType  string `json:"action_type"`
	MoveType    string `json:"move_type"`
	Paid        []int  `json:"paid,omitempty"`
}
