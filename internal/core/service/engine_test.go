package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudkinetics/azdrift/internal/core/diffing"
	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/normalize"
	"github.com/cloudkinetics/azdrift/internal/core/policy"
	"github.com/cloudkinetics/azdrift/internal/core/ports"
	"github.com/cloudkinetics/azdrift/internal/core/risk"
	"github.com/cloudkinetics/azdrift/internal/errors"
	"github.com/cloudkinetics/azdrift/internal/log"
)

type fakeSource struct {
	entities []domain.RawEntity
	diags    []domain.Diagnostic
	err      error
}

func (f *fakeSource) Type() string { return "fake-source" }

func (f *fakeSource) ListEntities(ctx context.Context) ([]domain.RawEntity, []domain.Diagnostic, error) {
	return f.entities, f.diags, f.err
}

type fakeScanner struct {
	entities []domain.RawEntity
	err      error

	mu            sync.Mutex
	resourceGroup string
}

func (f *fakeScanner) Type() string { return "fake-scanner" }

func (f *fakeScanner) ScanResourceGroup(ctx context.Context, rg string) ([]domain.RawEntity, []domain.Diagnostic, error) {
	f.mu.Lock()
	f.resourceGroup = rg
	f.mu.Unlock()
	return f.entities, nil, f.err
}

type captureReporter struct {
	mu      sync.Mutex
	reports []domain.DriftReport
	err     error
}

func (c *captureReporter) Type() string { return "capture" }

func (c *captureReporter) Report(ctx context.Context, rep domain.DriftReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, rep)
	return c.err
}

type fakePlanner struct {
	commands []domain.Command
}

func (f *fakePlanner) Plan(rep domain.DriftReport, declared map[domain.EntityID]domain.CanonicalEntity) []domain.Command {
	return f.commands
}

func declaredStorage(name, tier string) domain.RawEntity {
	return domain.RawEntity{
		Kind:       domain.KindStorageAccount,
		Name:       name,
		Source:     domain.SourceDeclared,
		Location:   "main.tf:1",
		Properties: map[string]any{"account_tier": tier},
	}
}

func liveStorage(name, tier string) domain.RawEntity {
	return domain.RawEntity{
		Kind:       domain.KindStorageAccount,
		Name:       name,
		Source:     domain.SourceLive,
		Region:     "eastus",
		Properties: map[string]any{"account_tier": tier},
	}
}

func newEngine(t *testing.T, source *fakeSource, scanner *fakeScanner, reporter *captureReporter, planner *fakePlanner) *DriftAnalysisEngine {
	t.Helper()
	pol := policy.Default()
	var plannerPort ports.CommandPlanner
	if planner != nil {
		plannerPort = planner
	}
	engine, err := NewDriftAnalysisEngine(
		source, scanner, []ports.Reporter{reporter},
		normalize.New(pol), diffing.New(pol), risk.New(pol), plannerPort,
		log.NewNop(), "rg-prod", 4,
	)
	require.NoError(t, err)
	return engine
}

func TestEngine_Run(t *testing.T) {
	source := &fakeSource{entities: []domain.RawEntity{
		declaredStorage("st-same", "Standard"),
		declaredStorage("st-drift", "Standard"),
		declaredStorage("st-missing", "Standard"),
	}}
	scanner := &fakeScanner{entities: []domain.RawEntity{
		liveStorage("st-same", "Standard"),
		liveStorage("st-drift", "Premium"),
		liveStorage("st-extra", "Standard"),
	}}
	reporter := &captureReporter{}
	planner := &fakePlanner{commands: []domain.Command{{Text: "az storage account update", Action: domain.ActionUpdate}}}

	engine := newEngine(t, source, scanner, reporter, planner)
	rep, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "rg-prod", rep.ResourceGroup)
	assert.Equal(t, "rg-prod", scanner.resourceGroup)
	assert.Equal(t, 1, rep.Counts.InSync)
	assert.Equal(t, 1, rep.Counts.Drifted)
	assert.Equal(t, 1, rep.Counts.MissingInLive)
	assert.Equal(t, 1, rep.Counts.Unmanaged)

	require.Len(t, rep.Commands, 1)
	assert.Equal(t, domain.ActionUpdate, rep.Commands[0].Action)

	require.Len(t, reporter.reports, 1)
	assert.Equal(t, rep.Counts, reporter.reports[0].Counts)
}

func TestEngine_RunDeterministic(t *testing.T) {
	source := &fakeSource{entities: []domain.RawEntity{
		declaredStorage("st-b", "Standard"),
		declaredStorage("st-a", "Standard"),
		declaredStorage("st-c", "Standard"),
	}}
	scanner := &fakeScanner{entities: []domain.RawEntity{
		liveStorage("st-c", "Premium"),
		liveStorage("st-a", "Premium"),
		liveStorage("st-b", "Premium"),
	}}

	engine := newEngine(t, source, scanner, &captureReporter{}, nil)

	first, err := engine.Run(context.Background())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := engine.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first.Counts, again.Counts)
		require.Len(t, again.Entities, len(first.Entities))
		for j := range first.Entities {
			assert.Equal(t, first.Entities[j].ID, again.Entities[j].ID)
			assert.Equal(t, first.Entities[j].Diffs, again.Entities[j].Diffs)
		}
	}
}

func TestEngine_SourceFailureAborts(t *testing.T) {
	source := &fakeSource{err: errors.New(errors.CodeSourceParseError, "bad HCL")}
	scanner := &fakeScanner{}

	engine := newEngine(t, source, scanner, &captureReporter{}, nil)
	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeSourceParseError, errors.GetCode(err), "the adapter's coded error survives the wrap")
}

func TestEngine_ScannerFailureAborts(t *testing.T) {
	source := &fakeSource{}
	scanner := &fakeScanner{err: errors.New(errors.CodePlatformAuthError, "no credential")}

	engine := newEngine(t, source, scanner, &captureReporter{}, nil)
	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodePlatformAuthError, errors.GetCode(err))
}

func TestEngine_ReporterFailureDoesNotAbort(t *testing.T) {
	source := &fakeSource{entities: []domain.RawEntity{declaredStorage("st", "Standard")}}
	scanner := &fakeScanner{entities: []domain.RawEntity{liveStorage("st", "Standard")}}
	failing := &captureReporter{err: errors.New(errors.CodeInternal, "sink unavailable")}

	engine := newEngine(t, source, scanner, failing, nil)
	rep, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Counts.InSync)
}

func TestEngine_SourceDiagnosticsSurface(t *testing.T) {
	source := &fakeSource{diags: []domain.Diagnostic{{Code: "UNKNOWN_ENTITY_TYPE_ERROR", Subject: "azurerm_cosmosdb_account.db"}}}
	scanner := &fakeScanner{}

	engine := newEngine(t, source, scanner, &captureReporter{}, nil)
	rep, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, "azurerm_cosmosdb_account.db", rep.Diagnostics[0].Subject)
}

func TestNewDriftAnalysisEngine_Validation(t *testing.T) {
	pol := policy.Default()

	_, err := NewDriftAnalysisEngine(nil, &fakeScanner{}, nil,
		normalize.New(pol), diffing.New(pol), risk.New(pol), nil, log.NewNop(), "rg", 1)
	assert.Error(t, err)

	_, err = NewDriftAnalysisEngine(&fakeSource{}, nil, nil,
		normalize.New(pol), diffing.New(pol), risk.New(pol), nil, log.NewNop(), "rg", 1)
	assert.Error(t, err)

	_, err = NewDriftAnalysisEngine(&fakeSource{}, &fakeScanner{}, nil,
		normalize.New(pol), diffing.New(pol), risk.New(pol), nil, log.NewNop(), "", 1)
	assert.Error(t, err)
}
