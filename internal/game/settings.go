package game

// Simulation constants.
const (
	// PlayerMax is the number of player slots, the last being the neutral player.
	PlayerMax = 16
	// PlayerNumNeutral is the slot of the neutral player.
	PlayerNumNeutral = PlayerMax - 1

	// ConstructionProgressScale converts one unit of time cost into build progress.
	ConstructionProgressScale = 600
)

// Settings contains the tunable simulation parameters.
type Settings struct {
	SpeedupFactor             int  `json:"speedupFactor"`
	CancelBuildingCostsFactor int  `json:"cancelBuildingCostsFactor"`
	CancelTrainingCostsFactor int  `json:"cancelTrainingCostsFactor"`
	CyclesPerSecond           int  `json:"cyclesPerSecond"`
	MaxUnits                  int  `json:"maxUnits"`
	ShowSelected              bool `json:"showSelected"`
	RevealMap                 bool `json:"revealMap"`
}

// DefaultSettings returns the standard rule set.
func DefaultSettings() Settings {
	return Settings{
		SpeedupFactor:             100,
		CancelBuildingCostsFactor: 75,
		CancelTrainingCostsFactor: 100,
		CyclesPerSecond:           30,
		MaxUnits:                  2048,
		ShowSelected:              true,
	}
}

// ShortWait is the backoff applied by stalled orders.
func (s Settings) ShortWait() int {
	return s.CyclesPerSecond / 6
}
