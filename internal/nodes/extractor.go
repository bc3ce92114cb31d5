package nodes

import (
	"context"
	"errors"

	"product_advisor/pkg"
)

// Failure kinds of a generative text service. GenerativeExtractor treats all three alike.
var (
	ErrUnavailable     = errors.New("generative service unavailable")
	ErrTimeout         = errors.New("generative service timed out")
	ErrMalformedOutput = errors.New("generative service returned malformed output")
)

// Extractor fills preference slots from an utterance and phrases the reply
type Extractor interface {
	// Extract returns an updated copy of record; the input is never modified
	Extract(ctx context.Context, utterance string, record pkg.PreferenceRecord) (pkg.PreferenceRecord, error)
	// Respond builds the assistant reply; matches is empty while gathering
	Respond(ctx context.Context, utterance string, record pkg.PreferenceRecord, matches []pkg.ProductRecord) (string, error)
	// GetName returns the backend name
	GetName() string
}
