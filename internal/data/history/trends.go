package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport turns consecutive snapshots into per-scan deltas plus a
// trailing average of conflict counts over window.
func BuildTrendReport(pathKey string, snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, fmt.Errorf("no snapshots available")
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			Timestamp:      current.Timestamp,
			SessionID:      current.SessionID,
			RootCount:      current.RootCount,
			ModuleCount:    current.ModuleCount,
			DuplicateCount: current.DuplicateCount,
			ConflictCount:  current.ConflictCount,
		}

		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaRoots = current.RootCount - prev.RootCount
			point.DeltaModules = current.ModuleCount - prev.ModuleCount
			point.DeltaDuplicates = current.DuplicateCount - prev.DuplicateCount
			point.DeltaConflicts = current.ConflictCount - prev.ConflictCount
			if prev.ModuleCount > 0 {
				point.ModuleGrowthPct = round2(float64(point.DeltaModules) / float64(prev.ModuleCount) * 100)
			}
		}

		point.AvgConflicts = round2(movingAverage(snapshots, i, window))
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		PathKey:       pathKey,
		SchemaVersion: SchemaVersion,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		Window:        window.String(),
		ScanCount:     len(points),
		Points:        points,
	}, nil
}

func movingAverage(snapshots []Snapshot, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(snapshots[index].ConflictCount)
	}

	cutoff := snapshots[index].Timestamp.Add(-window)
	total, count := 0, 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		total += snapshots[i].ConflictCount
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
