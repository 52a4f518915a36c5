package model

// Snapshot is the read-only view handed to renderers after every turn.
type Snapshot struct {
	GameId        string       `json:"game_id,omitempty"`
	Turn          int          `json:"turn"`
	CurrentAgent  int          `json:"current_agent"`
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	Agents        []AgentState `json:"agents"`
	Fires         []Point      `json:"fires"`
	Smoke         []Point      `json:"smoke"`
	POIs          []Point      `json:"pois"`
	Walls         [][]string   `json:"walls"`
	DamagedWalls  int          `json:"damaged_walls"`
	SavedVictims  int          `json:"saved_victims"`
	DeadVictims   int          `json:"dead_victims"`
	DeckRemaining int          `json:"deck_remaining"`
	Status        string       `json:"status"`
	Events        []Event      `json:"events"`
}

type AgentState struct {
	Id       int    `json:"id"`
	Name     string `json:"name"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	AP       int    `json:"ap"`
	Carrying bool   `json:"carrying"`
	Saved    int    `json:"saved"`
	Health   string `json:"health"`
}

const (
	SourceAgent = "agent"
	SourceFire  = "fire"
	SourcePOI   = "poi"
)

// Event is one board change inside a turn, in the order it happened.
type Event struct {
	Source string `json:"source"`
	Agent  int    `json:"agent,omitempty"`
	Action string `json:"action"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Dir    string `json:"dir,omitempty"`
}
