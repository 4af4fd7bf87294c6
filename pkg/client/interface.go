package client

import (
	"context"

	"github.com/menta2k/mls-photo-processor/pkg/types"
)

// VisionClient is the transport contract for a vision-language model backend.
// Implementations own the wire protocol and the parsing of model replies;
// prompts and vocabularies live with the caller.
type VisionClient interface {
	// SimpleQuery sends a prompt plus one image and returns the raw text reply.
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)

	// ScoreKeywords sends a prompt plus one image and parses the reply as a
	// JSON object mapping keywords to confidence scores. Keys are returned
	// lowercased and trimmed; the caller filters them against its vocabulary.
	ScoreKeywords(ctx context.Context, model, prompt, imgB64 string) (types.KeywordScores, error)
}
