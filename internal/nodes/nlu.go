package nodes

import (
	"context"

	"product_advisor/internal/logger"
	"product_advisor/pkg"
)

// Fixed replies used when the generative service fails during Respond
const (
	fallbackReadyReply     = "I have enough information to find some great options for you! Let me search for products that match your needs."
	fallbackGatheringReply = "Thanks for that information! Could you tell me a bit more about your budget and what you'll primarily use the device for?"

	// fallbackReadyRatio is separate from pkg.CompletionThreshold
	fallbackReadyRatio = 0.8
)

// FallbackObserver is notified whenever the generative backend falls back
type FallbackObserver interface {
	ObserveFallback(operation string)
}

// GenerativeExtractor fills slots and phrases replies through a TextGenerator.
// Any generator failure degrades to the unchanged record or a fixed reply.
type GenerativeExtractor struct {
	generator       TextGenerator
	defaultCategory string
	observer        FallbackObserver
}

// NewGenerativeExtractor wires the backend; generator may be nil when no credential is configured
func NewGenerativeExtractor(generator TextGenerator, defaultCategory string, observer FallbackObserver) *GenerativeExtractor {
	if defaultCategory == "" {
		defaultCategory = pkg.DefaultCategory
	}
	return &GenerativeExtractor{
		generator:       generator,
		defaultCategory: defaultCategory,
		observer:        observer,
	}
}

// GetName returns the backend name
func (g *GenerativeExtractor) GetName() string {
	return "generative"
}

// Extract asks the model for slot values and merges them first-write-wins
func (g *GenerativeExtractor) Extract(ctx context.Context, utterance string, record pkg.PreferenceRecord) (pkg.PreferenceRecord, error) {
	if g.generator == nil {
		g.fallback("extract", ErrUnavailable)
		return record.Clone(), nil
	}

	system, user, err := extractionPrompt(record, utterance)
	if err != nil {
		g.fallback("extract", err)
		return record.Clone(), nil
	}

	text, err := g.generator.Complete(ctx, system, user)
	if err != nil {
		g.fallback("extract", err)
		return record.Clone(), nil
	}

	updated, err := MergeJSON(record, text)
	if err != nil {
		g.fallback("extract", err)
		return record.Clone(), nil
	}

	if updated.Category == "" {
		updated.Category = g.defaultCategory
	}

	logger.Debug().
		Str("backend", g.GetName()).
		Int("filled_slots", pkg.FilledSlots(updated)).
		Msg("Slots extracted")

	return updated, nil
}

// Respond asks the model for a conversational reply
func (g *GenerativeExtractor) Respond(ctx context.Context, utterance string, record pkg.PreferenceRecord, matches []pkg.ProductRecord) (string, error) {
	if g.generator == nil {
		g.fallback("respond", ErrUnavailable)
		return fallbackReply(record), nil
	}

	system, user, err := responsePrompt(record, utterance, matches)
	if err != nil {
		g.fallback("respond", err)
		return fallbackReply(record), nil
	}

	text, err := g.generator.Complete(ctx, system, user)
	if err != nil {
		g.fallback("respond", err)
		return fallbackReply(record), nil
	}

	return text, nil
}

func (g *GenerativeExtractor) fallback(operation string, err error) {
	logger.Warn().
		Err(err).
		Str("operation", operation).
		Msg("Generative service failed, using fallback")
	if g.observer != nil {
		g.observer.ObserveFallback(operation)
	}
}

func fallbackReply(record pkg.PreferenceRecord) string {
	if pkg.CompletionRatio(record) >= fallbackReadyRatio {
		return fallbackReadyReply
	}
	return fallbackGatheringReply
}
