package history

import "sort"

const (
	defaultPortLimit   = 10
	minPortAttempts    = 2
	weakAccuracyBelow  = 80.0
	strongAccuracyFrom = 81.0
)

var standardDifficulties = []string{"easy", "normal", "hard"}

// WeakestPorts returns ports answered at least twice with accuracy below 80%,
// worst first.
func WeakestPorts(stats []PortStats, limit int) []PortStats {
	out := filterPorts(stats, func(s PortStats) bool {
		return s.Accuracy < weakAccuracyBelow
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Accuracy < out[j].Accuracy
	})
	return applyPortLimit(out, limit)
}

// StrongestPorts returns ports answered at least twice with accuracy of 81% or
// more, best first.
func StrongestPorts(stats []PortStats, limit int) []PortStats {
	out := filterPorts(stats, func(s PortStats) bool {
		return s.Accuracy >= strongAccuracyFrom
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Accuracy > out[j].Accuracy
	})
	return applyPortLimit(out, limit)
}

// PerformanceByDifficulty keys rows by difficulty label. The standard labels are
// always present so callers can render a fixed table.
func PerformanceByDifficulty(rows []DifficultyStats) map[string]DifficultyStats {
	out := make(map[string]DifficultyStats, len(standardDifficulties)+len(rows))
	for _, difficulty := range standardDifficulties {
		out[difficulty] = DifficultyStats{Difficulty: difficulty}
	}
	for _, row := range rows {
		out[row.Difficulty] = row
	}
	return out
}

func filterPorts(stats []PortStats, keep func(PortStats) bool) []PortStats {
	out := make([]PortStats, 0, len(stats))
	for _, s := range stats {
		if s.Attempts >= minPortAttempts && keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func applyPortLimit(stats []PortStats, limit int) []PortStats {
	if limit <= 0 {
		limit = defaultPortLimit
	}
	if limit >= len(stats) {
		return stats
	}
	return stats[:limit]
}
