package remediation

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/errors"
	"github.com/cloudkinetics/azdrift/internal/log"
)

func newTestExecutor(cfg ExecutorConfig, input string) (*Executor, *bytes.Buffer) {
	e := NewExecutor(cfg, log.NewNop())
	out := &bytes.Buffer{}
	e.in = strings.NewReader(input)
	e.out = out
	return e, out
}

func testCommands(texts ...string) []domain.Command {
	commands := make([]domain.Command, 0, len(texts))
	for i, text := range texts {
		commands = append(commands, domain.Command{
			Text:        text,
			Description: "test command",
			Action:      domain.ActionUpdate,
			Entity:      domain.NewEntityID(domain.KindStorageAccount, "st1"),
			Risk:        domain.RiskLevel(i % 3),
		})
	}
	return commands
}

func TestExecutor_EmptyPlan(t *testing.T) {
	e, out := newTestExecutor(ExecutorConfig{}, "")
	require.NoError(t, e.Execute(context.Background(), nil))
	assert.Contains(t, out.String(), "No corrective commands to execute.")
}

func TestExecutor_DryRunSkipsExecution(t *testing.T) {
	e, out := newTestExecutor(ExecutorConfig{DryRun: true}, "y\ny\n")
	err := e.Execute(context.Background(), testCommands("false", "false"))
	require.NoError(t, err, "dry run never reaches the shell")
	assert.Equal(t, 2, strings.Count(out.String(), "Dry run: command not executed."))
}

func TestExecutor_Approval(t *testing.T) {
	t.Run("yes runs the command", func(t *testing.T) {
		e, out := newTestExecutor(ExecutorConfig{}, "yes\n")
		require.NoError(t, e.Execute(context.Background(), testCommands("true")))
		assert.Contains(t, out.String(), "Applied.")
	})

	t.Run("anything else skips", func(t *testing.T) {
		e, out := newTestExecutor(ExecutorConfig{}, "n\n")
		require.NoError(t, e.Execute(context.Background(), testCommands("false")))
		assert.Contains(t, out.String(), "Skipped.")
		assert.NotContains(t, out.String(), "Failed")
	})

	t.Run("input EOF counts as decline", func(t *testing.T) {
		e, out := newTestExecutor(ExecutorConfig{}, "")
		require.NoError(t, e.Execute(context.Background(), testCommands("false")))
		assert.Contains(t, out.String(), "Skipped.")
	})

	t.Run("high risk is called out", func(t *testing.T) {
		e, out := newTestExecutor(ExecutorConfig{DryRun: true}, "y\n")
		commands := testCommands("false")
		commands[0].Risk = domain.RiskHigh
		require.NoError(t, e.Execute(context.Background(), commands))
		assert.Contains(t, out.String(), "High-risk change.")
	})
}

func TestExecutor_AutoApprove(t *testing.T) {
	e, out := newTestExecutor(ExecutorConfig{AutoApprove: true}, "")
	require.NoError(t, e.Execute(context.Background(), testCommands("true", "true")))
	assert.NotContains(t, out.String(), "Apply this command?")
	assert.Equal(t, 2, strings.Count(out.String(), "Applied."))
}

func TestExecutor_FailuresAggregated(t *testing.T) {
	e, out := newTestExecutor(ExecutorConfig{AutoApprove: true}, "")
	err := e.Execute(context.Background(), testCommands("false", "true", "false"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeCommandExecution, errors.GetCode(err))
	assert.Contains(t, err.Error(), "2 of 3 commands failed")
	assert.Contains(t, out.String(), "Applied.")
}

func TestExecutor_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e, _ := newTestExecutor(ExecutorConfig{AutoApprove: true}, "")
	err := e.Execute(ctx, testCommands("true"))
	assert.ErrorIs(t, err, context.Canceled)
}
