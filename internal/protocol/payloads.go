package protocol

// ==================== Authentication Payloads ====================

// AuthenticatePayload is sent to authenticate or register a spectator.
type AuthenticatePayload struct {
	Token string `json:"token,omitempty"` // Existing token for returning spectators
	Name  string `json:"name"`
}

// AuthResultPayload is the response to authentication.
type AuthResultPayload struct {
	Success     bool   `json:"success"`
	SpectatorID string `json:"spectator_id"`
	Token       string `json:"token"` // Save this for reconnecting
	Name        string `json:"name"`
	Error       string `json:"error,omitempty"`
}

// WelcomePayload is sent when a connection is accepted.
type WelcomePayload struct {
	ServerVersion string `json:"server_version"`
}

// ==================== Session Payloads ====================

// PlayerInfo describes one active player slot.
type PlayerInfo struct {
	Index     int            `json:"index"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Faction   string         `json:"faction,omitempty"`
	Color     string         `json:"color"`
	Resources map[string]int `json:"resources"`
	Supply    int            `json:"supply"`
	Demand    int            `json:"demand"`
}

// SessionInfoPayload describes the hosted session.
type SessionInfoPayload struct {
	SessionID   string       `json:"session_id"`
	Name        string       `json:"name"`
	MapID       string       `json:"map_id"`
	Cycle       int          `json:"cycle"`
	MinimapSize int          `json:"minimap_size"`
	Mode        string       `json:"mode"`
	Layer       int          `json:"layer"`
	Layers      int          `json:"layers"`
	Players     []PlayerInfo `json:"players"`
}

// FramePayload carries one composed minimap image. Pixels holds the RGBA
// bytes of a Size x Size image, lz4 compressed.
type FramePayload struct {
	Cycle    int    `json:"cycle"`
	SyncHash string `json:"sync_hash"`
	Mode     string `json:"mode"`
	Layer    int    `json:"layer"`
	Size     int    `json:"size"`
	Pixels   []byte `json:"pixels"`
}

// EventPayload is a world event as it happened.
type EventPayload struct {
	Kind    string `json:"kind"`
	Cycle   int    `json:"cycle"`
	Player  int    `json:"player"`
	Unit    string `json:"unit,omitempty"`
	Type    string `json:"type,omitempty"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Z       int    `json:"z"`
	Message string `json:"message,omitempty"`
}

// GetHistoryPayload requests stored events after AfterID.
type GetHistoryPayload struct {
	AfterID int64 `json:"after_id"`
}

// HistoryEntry is one stored event.
type HistoryEntry struct {
	ID      int64  `json:"id"`
	Cycle   int    `json:"cycle"`
	Player  int    `json:"player"`
	Kind    string `json:"kind"`
	Unit    string `json:"unit,omitempty"`
	Message string `json:"message,omitempty"`
}

// HistoryPayload answers GetHistoryPayload.
type HistoryPayload struct {
	Events []HistoryEntry `json:"events"`
}

// ==================== Command Payloads ====================

// SetMinimapModePayload selects a minimap presentation. An empty mode advances
// to the next one.
type SetMinimapModePayload struct {
	Mode string `json:"mode,omitempty"`
}

// SetLayerPayload selects the map layer shown.
type SetLayerPayload struct {
	Layer int `json:"layer"`
}

// InspectTilePayload asks about the tile under minimap pixel X, Y.
type InspectTilePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TileInfoPayload describes a tile.
type TileInfoPayload struct {
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Z          int    `json:"z"`
	Terrain    string `json:"terrain"`
	Overlay    string `json:"overlay,omitempty"`
	Settlement string `json:"settlement,omitempty"`
	Owner      int    `json:"owner"` // -1 when unowned
	Landmass   int    `json:"landmass"`
	// Box is the tile's minimap pixel area as x0, y0, x1, y1 (exclusive).
	Box [4]int `json:"box"`
}

// TrainUnitPayload queues a unit in a building.
type TrainUnitPayload struct {
	Unit string `json:"unit"`
	Type string `json:"type"`
}

// CancelTrainingPayload removes slot from a building's training queue. A
// negative slot cancels the last queued unit.
type CancelTrainingPayload struct {
	Unit string `json:"unit"`
	Slot int    `json:"slot"`
}

// CancelBuildingPayload aborts construction of a building.
type CancelBuildingPayload struct {
	Unit string `json:"unit"`
}

// SaveGamePayload requests a save.
type SaveGamePayload struct {
	Name string `json:"name"`
}

// GameSavedPayload reports a stored save.
type GameSavedPayload struct {
	SaveID   string `json:"save_id"`
	Name     string `json:"name"`
	Cycle    int    `json:"cycle"`
	SyncHash string `json:"sync_hash"`
	Size     int    `json:"size"`
}

// SaveListPayload lists the saves of the session.
type SaveListPayload struct {
	Saves []GameSavedPayload `json:"saves"`
}

// CommandAcceptedPayload acknowledges a command, applied at Cycle.
type CommandAcceptedPayload struct {
	Cycle int `json:"cycle"`
}
