package core

import (
	"context"
	"errors"
	"testing"

	"product_advisor/internal/metrics"
	"product_advisor/internal/nodes"
	"product_advisor/internal/services"
	"product_advisor/internal/storage"
	"product_advisor/pkg"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSessions struct {
	loadErr, saveErr, deleteErr error
	saved                       []pkg.PreferenceRecord
}

func (f *failingSessions) Load(context.Context, string) (pkg.PreferenceRecord, error) {
	return pkg.PreferenceRecord{Budget: pkg.Float(1)}, f.loadErr
}

func (f *failingSessions) Save(_ context.Context, _ string, r pkg.PreferenceRecord) error {
	f.saved = append(f.saved, r)
	return f.saveErr
}

func (f *failingSessions) Exists(context.Context, string) (bool, error) {
	return f.loadErr == nil, f.loadErr
}

func (f *failingSessions) Delete(context.Context, string) error {
	return f.deleteErr
}

type failingCatalog struct{}

func (failingCatalog) All(context.Context) ([]pkg.ProductRecord, error) {
	return nil, errors.New("catalog down")
}

type panickingExtractor struct{ nodes.Extractor }

func (panickingExtractor) Extract(context.Context, string, pkg.PreferenceRecord) (pkg.PreferenceRecord, error) {
	panic("boom")
}

type erroringExtractor struct{ *nodes.PatternExtractor }

func (erroringExtractor) Respond(context.Context, string, pkg.PreferenceRecord, []pkg.ProductRecord) (string, error) {
	return "", errors.New("template broke")
}

func gamingCatalog() *services.ProductService {
	return services.NewProductService([]pkg.ProductRecord{
		{ID: 1, Name: "Strix G16", Category: "laptop", Price: 1499, MemorySize: pkg.Int(16), UseCase: "Gaming"},
		{ID: 2, Name: "Nitro 15", Category: "laptop", Price: 899, MemorySize: pkg.Int(16), UseCase: "Gaming"},
		{ID: 3, Name: "Victus 15", Category: "laptop", Price: 799, MemorySize: pkg.Int(16), UseCase: "Gaming"},
		{ID: 4, Name: "Chromebook", Category: "laptop", Price: 249, MemorySize: pkg.Int(4), UseCase: "Education"},
		{ID: 5, Name: "Headphones", Category: "Audio", Price: 199.99},
	})
}

func newTestOrchestrator(sessions SessionStore, catalog CatalogStore) (*Orchestrator, *metrics.Metrics) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return NewOrchestrator(nodes.NewPatternExtractor(""), sessions, catalog, services.NewProductMatcher(), m), m
}

func TestHandleTurnRecommends(t *testing.T) {
	ctx := context.Background()
	sessions := storage.NewMemorySessionStore(0)
	o, m := newTestOrchestrator(sessions, gamingCatalog())

	result, err := o.HandleTurn(ctx, "s1", "I need a laptop under $1000 for gaming with 16GB RAM")
	require.NoError(t, err)

	assert.False(t, result.NeedsMoreInfo)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "Victus 15", result.Matches[0].Name)
	assert.Equal(t, "Nitro 15", result.Matches[1].Name)
	assert.Contains(t, result.Reply, "I found 2 laptop(s)")

	stored, err := o.Inspect(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, *stored.Budget)
	assert.Equal(t, pkg.PurposeGaming, stored.Purpose)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues(metrics.StateRecommended)))
}

func TestHandleTurnGathers(t *testing.T) {
	ctx := context.Background()
	o, m := newTestOrchestrator(storage.NewMemorySessionStore(0), gamingCatalog())

	result, err := o.HandleTurn(ctx, "s1", "hello")
	require.NoError(t, err)

	assert.True(t, result.NeedsMoreInfo)
	assert.Empty(t, result.Matches)
	assert.NotNil(t, result.Matches)
	assert.Contains(t, result.Reply, "What's your budget range?")
	assert.Contains(t, result.Reply, "What will you primarily use it for?")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues(metrics.StateGathering)))
}

func TestHandleTurnAccumulatesAcrossTurns(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOrchestrator(storage.NewMemorySessionStore(0), gamingCatalog())

	first, err := o.HandleTurn(ctx, "s1", "hello, it's for gaming")
	require.NoError(t, err)
	assert.True(t, first.NeedsMoreInfo)

	second, err := o.HandleTurn(ctx, "s1", "under $900 please")
	require.NoError(t, err)
	assert.True(t, second.NeedsMoreInfo)

	third, err := o.HandleTurn(ctx, "s1", "with 16gb ram")
	require.NoError(t, err)
	assert.False(t, third.NeedsMoreInfo)
	assert.Equal(t, []string{"Victus 15", "Nitro 15"}, []string{third.Matches[0].Name, third.Matches[1].Name})

	// Other sessions are independent
	other, err := o.HandleTurn(ctx, "s2", "hello")
	require.NoError(t, err)
	assert.True(t, other.NeedsMoreInfo)
}

func TestHandleTurnLoadFailure(t *testing.T) {
	sessions := &failingSessions{loadErr: errors.New("redis down")}
	o, m := newTestOrchestrator(sessions, gamingCatalog())

	result, err := o.HandleTurn(context.Background(), "s1", "hello")

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, OpLoad, perr.Op)
	assert.Equal(t, "s1", perr.SessionID)
	assert.NotEmpty(t, result.Reply)
	assert.NotEqual(t, ApologyReply, result.Reply)

	// Continues from an empty record, not the partial one returned by the store
	require.Len(t, sessions.saved, 1)
	assert.Nil(t, sessions.saved[0].Budget)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistenceFailuresTotal.WithLabelValues(OpLoad)))
}

func TestHandleTurnSaveFailure(t *testing.T) {
	sessions := &failingSessions{saveErr: errors.New("redis down")}
	o, _ := newTestOrchestrator(sessions, gamingCatalog())

	result, err := o.HandleTurn(context.Background(), "s1", "for gaming with 16gb ram")

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, OpSave, perr.Op)
	assert.ErrorContains(t, err, "redis down")

	// Budget 1 from the store plus gaming, ram and performance completes the record
	assert.False(t, result.NeedsMoreInfo)
	assert.NotEqual(t, ApologyReply, result.Reply)
}

func TestHandleTurnLoadAndSaveFailure(t *testing.T) {
	sessions := &failingSessions{loadErr: errors.New("read timeout"), saveErr: errors.New("write timeout")}
	o, m := newTestOrchestrator(sessions, gamingCatalog())

	result, err := o.HandleTurn(context.Background(), "s1", "hello")
	require.Error(t, err)
	assert.NotEqual(t, ApologyReply, result.Reply)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)

	var ops []string
	for _, e := range joined.Unwrap() {
		var perr *PersistenceError
		require.ErrorAs(t, e, &perr)
		ops = append(ops, perr.Op)
	}
	assert.Equal(t, []string{OpLoad, OpSave}, ops)
	assert.ErrorContains(t, err, "write timeout")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistenceFailuresTotal.WithLabelValues(OpSave)))
}

func TestHandleTurnCatalogFailure(t *testing.T) {
	o, m := newTestOrchestrator(storage.NewMemorySessionStore(0), failingCatalog{})

	result, err := o.HandleTurn(context.Background(), "s1", "I need a laptop under $1000 for gaming with 16GB RAM")
	require.NoError(t, err)

	assert.False(t, result.NeedsMoreInfo)
	assert.Empty(t, result.Matches)
	assert.NotEqual(t, ApologyReply, result.Reply)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues(metrics.StateNoMatch)))
}

func TestHandleTurnRecoversPanics(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	o := NewOrchestrator(panickingExtractor{}, storage.NewMemorySessionStore(0), gamingCatalog(), nil, m)

	var result pkg.TurnResult
	var err error
	require.NotPanics(t, func() {
		result, err = o.HandleTurn(context.Background(), "s1", "hello")
	})
	require.NoError(t, err)
	assert.Equal(t, ApologyReply, result.Reply)
	assert.True(t, result.NeedsMoreInfo)
	assert.Empty(t, result.Matches)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues(metrics.StateFailed)))
}

func TestHandleTurnRespondError(t *testing.T) {
	sessions := storage.NewMemorySessionStore(0)
	o := NewOrchestrator(erroringExtractor{nodes.NewPatternExtractor("")}, sessions, gamingCatalog(), nil, nil)

	result, err := o.HandleTurn(context.Background(), "s1", "for gaming")
	require.NoError(t, err)
	assert.Equal(t, ApologyReply, result.Reply)

	// Extracted slots were saved before the failure
	stored, err := o.Inspect(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, pkg.PurposeGaming, stored.Purpose)
}

func TestHandleTurnGenerativeBackendWithoutCredential(t *testing.T) {
	extractor := nodes.NewGenerativeExtractor(nil, "", nil)
	o := NewOrchestrator(extractor, storage.NewMemorySessionStore(0), gamingCatalog(), nil, nil)

	result, err := o.HandleTurn(context.Background(), "s1", "I need a gaming laptop")
	require.NoError(t, err)
	assert.True(t, result.NeedsMoreInfo)
	assert.Equal(t, "Thanks for that information! Could you tell me a bit more about your budget and what you'll primarily use the device for?", result.Reply)
	assert.Equal(t, "generative", o.Backend())
}

func TestSearchDirect(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOrchestrator(storage.NewMemorySessionStore(0), gamingCatalog())

	got, err := o.SearchDirect(ctx, pkg.PreferenceRecord{Budget: pkg.Float(150), Category: "Audio"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = o.SearchDirect(ctx, pkg.PreferenceRecord{Purpose: pkg.PurposeGaming})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	broken, _ := newTestOrchestrator(storage.NewMemorySessionStore(0), failingCatalog{})
	_, err = broken.SearchDirect(ctx, pkg.PreferenceRecord{})
	assert.Error(t, err)
}

func TestInspectFailure(t *testing.T) {
	o, _ := newTestOrchestrator(&failingSessions{loadErr: errors.New("down")}, gamingCatalog())
	_, err := o.Inspect(context.Background(), "s1")

	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	sessions := storage.NewMemorySessionStore(0)
	o, _ := newTestOrchestrator(sessions, gamingCatalog())

	_, err := o.HandleTurn(ctx, "s1", "for gaming with 16gb ram")
	require.NoError(t, err)

	existed, err := o.Reset(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, existed)

	record, err := o.Inspect(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, pkg.PreferenceRecord{}, record)

	existed, err = o.Reset(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestResetFailure(t *testing.T) {
	o, m := newTestOrchestrator(&failingSessions{deleteErr: errors.New("redis down")}, gamingCatalog())

	_, err := o.Reset(context.Background(), "s1")

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, OpReset, perr.Op)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistenceFailuresTotal.WithLabelValues(OpReset)))
}
