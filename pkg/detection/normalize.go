package detection

import (
	"github.com/menta2k/mls-photo-processor/pkg/types"
)

// Normalize applies the detection threshold to raw keyword scores. Objects at
// or above the threshold keep their score; everything else is dropped, so a
// weak detection is indistinguishable from no detection at all.
func Normalize(raw types.KeywordScores, threshold float64) types.ObjectDetection {
	detected := make(types.ObjectDetection, len(raw))
	for name, score := range raw {
		if score >= threshold {
			detected[name] = score
		}
	}
	return detected
}
