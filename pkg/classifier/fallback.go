package classifier

import (
	"github.com/menta2k/mls-photo-processor/pkg/types"
)

// ResolveScene selects the fallback label: the highest-scoring scene label,
// accepted only when its score is at or above threshold. Equal maxima are
// broken by canonical label order, so repeated runs over the same scores
// always pick the same label. The boolean is false when no label qualifies.
func ResolveScene(scores types.SceneScores, threshold float64) (types.RoomLabel, float64, bool) {
	best := types.Other
	bestScore := 0.0
	found := false

	for _, label := range types.SceneLabels() {
		score, ok := scores[label]
		if !ok {
			continue
		}
		if !found || score > bestScore {
			best = label
			bestScore = score
			found = true
		}
	}

	if !found || bestScore < threshold {
		return types.Other, 0, false
	}
	return best, bestScore, true
}
