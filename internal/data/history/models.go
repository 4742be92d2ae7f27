package history

import "time"

const SchemaVersion = 1

// Snapshot records the headline counts of one session over a class path.
// Only counts are stored; indices are always rebuilt from the roots.
type Snapshot struct {
	PathKey        string    `json:"path_key"`
	SchemaVersion  int       `json:"schema_version"`
	SessionID      string    `json:"session_id"`
	Timestamp      time.Time `json:"timestamp"`
	RootCount      int       `json:"root_count"`
	ModuleCount    int       `json:"module_count"`
	DuplicateCount int       `json:"duplicate_count"`
	ConflictCount  int       `json:"conflict_count"`
}

type TrendPoint struct {
	Timestamp       time.Time `json:"timestamp"`
	SessionID       string    `json:"session_id"`
	RootCount       int       `json:"root_count"`
	ModuleCount     int       `json:"module_count"`
	DuplicateCount  int       `json:"duplicate_count"`
	ConflictCount   int       `json:"conflict_count"`
	DeltaRoots      int       `json:"delta_roots"`
	DeltaModules    int       `json:"delta_modules"`
	DeltaDuplicates int       `json:"delta_duplicates"`
	DeltaConflicts  int       `json:"delta_conflicts"`
	ModuleGrowthPct float64   `json:"module_growth_pct"`
	AvgConflicts    float64   `json:"avg_conflicts"`
	WindowHours     float64   `json:"window_hours"`
}

type TrendReport struct {
	PathKey       string       `json:"path_key"`
	SchemaVersion int          `json:"schema_version"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	ScanCount     int          `json:"scan_count"`
	Points        []TrendPoint `json:"points"`
}
