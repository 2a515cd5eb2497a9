package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

type namedReporter struct{ name string }

func (n *namedReporter) Type() string { return n.name }

func (n *namedReporter) Report(ctx context.Context, rep domain.DriftReport) error { return nil }

func TestComponentRegistry_SourceProviders(t *testing.T) {
	r := NewComponentRegistry()
	provider := &fakeSource{}

	require.NoError(t, r.RegisterSourceProvider(provider))

	got, err := r.GetSourceProvider("fake-source")
	require.NoError(t, err)
	assert.Same(t, provider, got.(*fakeSource))

	t.Run("duplicate registration fails", func(t *testing.T) {
		err := r.RegisterSourceProvider(&fakeSource{})
		require.Error(t, err)
		assert.Equal(t, errors.CodeInternal, errors.GetCode(err))
	})

	t.Run("unknown type fails", func(t *testing.T) {
		_, err := r.GetSourceProvider("nope")
		require.Error(t, err)
		assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))
	})

	t.Run("nil provider fails", func(t *testing.T) {
		assert.Error(t, r.RegisterSourceProvider(nil))
	})
}

func TestComponentRegistry_PlatformScanners(t *testing.T) {
	r := NewComponentRegistry()
	scanner := &fakeScanner{}

	require.NoError(t, r.RegisterPlatformScanner(scanner))
	got, err := r.GetPlatformScanner("fake-scanner")
	require.NoError(t, err)
	assert.Same(t, scanner, got.(*fakeScanner))

	assert.Error(t, r.RegisterPlatformScanner(scanner))
}

func TestComponentRegistry_Reporters(t *testing.T) {
	r := NewComponentRegistry()

	require.NoError(t, r.RegisterReporter(&namedReporter{name: "text"}))
	require.NoError(t, r.RegisterReporter(&namedReporter{name: "json"}))

	got, err := r.GetReporter("json")
	require.NoError(t, err)
	assert.Equal(t, "json", got.Type())

	assert.Error(t, r.RegisterReporter(&namedReporter{name: "text"}))
}
