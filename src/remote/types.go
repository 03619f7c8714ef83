package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a server identifier that may be sent as a JSON number or string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	// only canonical integers go out bare; "007" or "+5" stay strings
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string {
	return string(id)
}

// Puzzle is the solvable part of a mission. Payload shape depends on Type.
type Puzzle struct {
	ID      ID              `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Mission is a unit of work issued by the server.
type Mission struct {
	ID         ID              `json:"id"`
	Difficulty string          `json:"difficulty"`
	Solution   json.RawMessage `json:"solution,omitempty"`
	Puzzle     Puzzle          `json:"puzzle"`
}

// HasSolution reports whether the server already attached a solution.
func (m *Mission) HasSolution() bool {
	if m == nil {
		return false
	}
	raw := strings.TrimSpace(string(m.Solution))
	return raw != "" && raw != "null"
}

// Character is the snapshot returned by the character endpoints.
type Character struct {
	Name          string   `json:"name,omitempty"`
	Level         int      `json:"level,omitempty"`
	Energy        int      `json:"energy"`
	ActiveMission *Mission `json:"activeMission"`
}

// Reward is what a solved mission pays out.
type Reward struct {
	VictoryToken string `json:"victoryToken"`
}

// SolveResponse is the body of a successful solve call.
type SolveResponse struct {
	Reward *Reward `json:"reward"`
}

// VictoryToken returns the token when the reward carries one.
func (s SolveResponse) VictoryToken() (string, bool) {
	if s.Reward == nil || strings.TrimSpace(s.Reward.VictoryToken) == "" {
		return "", false
	}
	return s.Reward.VictoryToken, true
}
