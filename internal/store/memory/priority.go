package memory

import (
	"sort"
	"time"

	"clinicflow/flow-service/internal/models"
)

// Priority is two-phase. Storage order only changes for acuity-1 arrivals
// (hard insertion behind the pinned head); every other tier earns its place
// at read time, where the base acuity weight ages upward at
// agingRatePerMinute so long waits eventually outrank higher acuity.
const agingRatePerMinute = 2.0

var acuityBaseScores = map[int]float64{
	1: 1000,
	2: 800,
	3: 500,
	4: 200,
	5: 100,
}

const defaultBaseScore = 100

func baseScore(acuityLevel int) float64 {
	if score, ok := acuityBaseScores[acuityLevel]; ok {
		return score
	}
	return defaultBaseScore
}

func score(entry models.QueueEntry, now time.Time) float64 {
	return entry.BaseScore + agingRatePerMinute*waitMinutes(entry, now)
}

func waitMinutes(entry models.QueueEntry, now time.Time) float64 {
	return float64(now.Sub(entry.EntryTime).Milliseconds()) / 60000
}

// rank produces the display ordering of a queue: the entry at index 0 stays
// pinned (it is the patient being served and must not visibly reshuffle),
// the rest is stable-sorted descending by aged score.
func rank(queue []models.QueueEntry, now time.Time) []models.RankedEntry {
	ranked := make([]models.RankedEntry, len(queue))
	for i, entry := range queue {
		ranked[i] = models.RankedEntry{
			QueueEntry:  entry,
			WaitMinutes: int(waitMinutes(entry, now)),
			TotalScore:  score(entry, now),
		}
	}
	if len(ranked) <= 1 {
		return ranked
	}

	tail := ranked[1:]
	sort.SliceStable(tail, func(i, j int) bool {
		return tail[i].TotalScore > tail[j].TotalScore
	})
	return ranked
}
