package advisory

import "time"

// Request captures the payload accepted by the advisory endpoints.
type Request struct {
	CountryCode string `json:"countryCode" form:"countryCode"`
	CountryName string `json:"countryName" form:"countryName"`
}

// Record is the normalized advisory returned to API consumers.
// Level 0 means no matching bulletin or no bulletin data at all.
type Record struct {
	Level     int    `json:"level"`
	LevelText string `json:"levelText"`
	Message   string `json:"message"`
	Summary   string `json:"summary"`
	Source    string `json:"source"`
	Link      string `json:"link"`
}

// Bulletin is one entry of the upstream travel advisory feed. The title
// embeds both the country name and the "Level N" marker.
type Bulletin struct {
	Title   string `json:"Title"`
	Summary string `json:"Summary"`
	Link    string `json:"Link"`
}

// CacheEntry is the persisted snapshot of the full bulletin list.
type CacheEntry struct {
	FetchedAt int64      `json:"timestamp"` // epoch millis
	Bulletins []Bulletin `json:"data"`
}

// FetchedTime converts FetchedAt to a time.Time.
func (e CacheEntry) FetchedTime() time.Time {
	return time.UnixMilli(e.FetchedAt)
}

// Config wires runtime knobs for the advisory domain.
type Config struct {
	CacheTTL time.Duration
	Source   string
}
