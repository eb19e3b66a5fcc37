package model

// PriceUpdateEvent is emitted when a merged token's fiat price moved by at
// least the engine's percent threshold since the previous merge.
type PriceUpdateEvent struct {
	Address       string  `json:"address"`
	OldPrice      float64 `json:"old_price"`
	NewPrice      float64 `json:"new_price"`
	PercentChange float64 `json:"percent_change"`
	Volume24h     float64 `json:"volume_24h"`
}

// VolumeSpikeEvent is emitted when a merged token's 24h volume grew by at
// least the engine's spike threshold since the previous merge.
type VolumeSpikeEvent struct {
	Address        string  `json:"address"`
	Ticker         string  `json:"ticker"`
	PercentChange  float64 `json:"percent_change"`
	CurrentVolume  float64 `json:"current_volume"`
	PreviousVolume float64 `json:"previous_volume"`
	Window         string  `json:"window"`
}
