package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"product_advisor/internal/logger"
	"product_advisor/internal/metrics"
	"product_advisor/internal/nodes"
	"product_advisor/internal/services"
	"product_advisor/pkg"
)

// Orchestrator runs one dialogue turn per message: load, extract, save, gate, then search or ask.
// The dialogue state is derived from the record every turn and never stored.
type Orchestrator struct {
	extractor nodes.Extractor
	sessions  SessionStore
	catalog   CatalogStore
	matcher   *services.ProductMatcher
	metrics   *metrics.Metrics
}

// NewOrchestrator wires the turn pipeline; m may be nil
func NewOrchestrator(extractor nodes.Extractor, sessions SessionStore, catalog CatalogStore, matcher *services.ProductMatcher, m *metrics.Metrics) *Orchestrator {
	if matcher == nil {
		matcher = services.NewProductMatcher()
	}
	return &Orchestrator{
		extractor: extractor,
		sessions:  sessions,
		catalog:   catalog,
		matcher:   matcher,
		metrics:   m,
	}
}

// Backend returns the name of the extraction backend in use
func (o *Orchestrator) Backend() string {
	return o.extractor.GetName()
}

// HandleTurn processes one utterance and always returns a well-formed reply.
// A non-nil error holds only *PersistenceError values, one per failed load or save.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, utterance string) (result pkg.TurnResult, err error) {
	start := time.Now()
	state := metrics.StateFailed

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Str("session_id", sessionID).
				Interface("panic", r).
				Msg("Turn panicked, replying with apology")
			result = apology()
			state = metrics.StateFailed
		}
		o.metrics.RecordTurn(state, time.Since(start).Seconds())
	}()

	record, loadErr := o.sessions.Load(ctx, sessionID)
	if loadErr != nil {
		err = o.persistenceFailure(OpLoad, sessionID, loadErr)
		record = pkg.PreferenceRecord{}
	}

	updated, extractErr := o.extractor.Extract(ctx, utterance, record)
	if extractErr != nil {
		logger.Error().Err(extractErr).Str("session_id", sessionID).Msg("Extraction failed")
		return apology(), err
	}

	// Persist before matching so extracted slots survive a failing search
	if saveErr := o.sessions.Save(ctx, sessionID, updated); saveErr != nil {
		err = errors.Join(err, o.persistenceFailure(OpSave, sessionID, saveErr))
	}

	ratio := pkg.CompletionRatio(updated)
	var matches []pkg.ProductRecord
	needsMoreInfo := !pkg.IsComplete(updated)

	if !needsMoreInfo {
		matches = o.search(ctx, updated)
		o.metrics.RecordMatches(len(matches))
	}

	reply, respondErr := o.extractor.Respond(ctx, utterance, updated, matches)
	if respondErr != nil {
		logger.Error().Err(respondErr).Str("session_id", sessionID).Msg("Reply generation failed")
		return apology(), err
	}

	switch {
	case needsMoreInfo:
		state = metrics.StateGathering
	case len(matches) == 0:
		state = metrics.StateNoMatch
	default:
		state = metrics.StateRecommended
	}

	logger.Debug().
		Str("session_id", sessionID).
		Str("backend", o.extractor.GetName()).
		Float64("completion", ratio).
		Str("state", state).
		Int("matches", len(matches)).
		Msg("Turn handled")

	if matches == nil {
		matches = []pkg.ProductRecord{}
	}
	return pkg.TurnResult{Reply: reply, NeedsMoreInfo: needsMoreInfo, Matches: matches}, err
}

// Inspect returns the stored record of a session
func (o *Orchestrator) Inspect(ctx context.Context, sessionID string) (pkg.PreferenceRecord, error) {
	record, err := o.sessions.Load(ctx, sessionID)
	if err != nil {
		return pkg.PreferenceRecord{}, &PersistenceError{Op: OpLoad, SessionID: sessionID, Err: err}
	}
	return record, nil
}

// Reset forgets a session; existed reports whether there was anything to forget
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) (existed bool, err error) {
	existed, err = o.sessions.Exists(ctx, sessionID)
	if err != nil {
		return false, o.persistenceFailure(OpReset, sessionID, err)
	}
	if err := o.sessions.Delete(ctx, sessionID); err != nil {
		return false, o.persistenceFailure(OpReset, sessionID, err)
	}
	return existed, nil
}

// SearchDirect matches a partial record against the catalog without touching any session
func (o *Orchestrator) SearchDirect(ctx context.Context, record pkg.PreferenceRecord) ([]pkg.ProductRecord, error) {
	catalog, err := o.catalog.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog unavailable: %w", err)
	}
	return o.matcher.Search(record, catalog), nil
}

// search treats an unavailable catalog as zero matches
func (o *Orchestrator) search(ctx context.Context, record pkg.PreferenceRecord) []pkg.ProductRecord {
	catalog, err := o.catalog.All(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Catalog unavailable, treating as no matches")
		return nil
	}
	return o.matcher.Search(record, catalog)
}

func (o *Orchestrator) persistenceFailure(op, sessionID string, err error) error {
	logger.Warn().
		Err(err).
		Str("session_id", sessionID).
		Str("operation", op).
		Msg("Session persistence failed")
	o.metrics.RecordPersistenceFailure(op)
	return &PersistenceError{Op: op, SessionID: sessionID, Err: err}
}

func apology() pkg.TurnResult {
	return pkg.TurnResult{Reply: ApologyReply, NeedsMoreInfo: true, Matches: []pkg.ProductRecord{}}
}
