package app

import (
	"context"

	"github.com/cloudkinetics/azdrift/internal/config"
	"github.com/cloudkinetics/azdrift/internal/core/ports"
)

// Application wires the analysis engine to an optional remediation executor.
// Cleanup releases resources acquired during bootstrap, such as a git clone.
type Application struct {
	Engine   ports.DriftAnalysisEngine
	Executor ports.CommandExecutor
	Logger   ports.Logger
	Config   *config.Config

	cleanup func()
}

// Run executes one drift analysis pass and, when remediation is enabled,
// feeds the planned commands to the executor.
func (a *Application) Run(ctx context.Context) error {
	a.Logger.Infof(ctx, "Starting drift analysis...")

	rep, err := a.Engine.Run(ctx)
	if err != nil {
		a.Logger.Errorf(ctx, err, "Drift analysis failed")
		return err
	}
	a.Logger.Infof(ctx, "Drift analysis completed successfully")

	if a.Executor != nil && len(rep.Commands) > 0 {
		return a.Executor.Execute(ctx, rep.Commands)
	}
	return nil
}

// Cleanup removes temporary state created during bootstrap. Safe to call
// multiple times.
func (a *Application) Cleanup() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}
