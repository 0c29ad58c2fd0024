package history

// Origin tags who produced an observation.
type Origin int

const (
	// OriginAutomated marks observations written by the scheduler.
	OriginAutomated Origin = 0
	// OriginUserReport marks observations reported by end users.
	OriginUserReport Origin = 1
)

// Observation is one recorded data point in a service's ledger.
type Observation struct {
	Timestamp int64 `json:"timestamp"`
	Up        bool  `json:"status"`
}

// Row is a raw ledger row, used by the export endpoint.
type Row struct {
	Service   string `json:"service"`
	Timestamp int64  `json:"timestamp"`
	Up        bool   `json:"status"`
	Origin    Origin `json:"origin"`
}
