package remediation

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/ports"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

type ExecutorConfig struct {
	DryRun      bool `yaml:"dry_run" mapstructure:"dry_run"`
	AutoApprove bool `yaml:"auto_approve" mapstructure:"auto_approve"`
}

// Executor runs planned commands through the local az CLI, one at a time,
// each gated on interactive approval unless auto-approve is set. Dry-run
// walks the same approval flow but never invokes the CLI.
type Executor struct {
	cfg    ExecutorConfig
	in     io.Reader
	out    io.Writer
	logger ports.Logger
}

func NewExecutor(cfg ExecutorConfig, logger ports.Logger) *Executor {
	return &Executor{
		cfg:    cfg,
		in:     os.Stdin,
		out:    os.Stdout,
		logger: logger,
	}
}

func (e *Executor) Execute(ctx context.Context, commands []domain.Command) error {
	if len(commands) == 0 {
		fmt.Fprintln(e.out, "No corrective commands to execute.")
		return nil
	}

	red := color.New(color.FgRed).SprintFunc()
	reader := bufio.NewReader(e.in)

	var failed int
	for i, cmd := range commands {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprintf(e.out, "\n[%d/%d] %s (risk: %s)\n%s\n", i+1, len(commands), cmd.Description, cmd.Risk, cmd.Text)

		if !e.cfg.AutoApprove {
			if cmd.Risk == domain.RiskHigh {
				fmt.Fprintln(e.out, red("High-risk change."))
			}
			fmt.Fprint(e.out, "Apply this command? [y/N]: ")
			line, err := reader.ReadString('\n')
			if err != nil && err != io.EOF {
				return errors.Wrap(err, errors.CodeCommandExecution, "failed reading approval input")
			}
			answer := strings.ToLower(strings.TrimSpace(line))
			if answer != "y" && answer != "yes" {
				e.logger.Infof(ctx, "Command for %s skipped by operator", cmd.Entity)
				fmt.Fprintln(e.out, "Skipped.")
				continue
			}
		}

		if e.cfg.DryRun {
			fmt.Fprintln(e.out, "Dry run: command not executed.")
			continue
		}

		if err := e.runCommand(ctx, cmd); err != nil {
			failed++
			e.logger.Errorf(ctx, err, "Command for %s failed", cmd.Entity)
			fmt.Fprintf(e.out, "Failed: %v\n", err)
			continue
		}
		fmt.Fprintln(e.out, "Applied.")
	}

	if failed > 0 {
		return errors.New(errors.CodeCommandExecution, fmt.Sprintf("%d of %d commands failed", failed, len(commands)))
	}
	return nil
}

func (e *Executor) runCommand(ctx context.Context, cmd domain.Command) error {
	// Commands are multi-line az invocations; the shell handles continuations.
	proc := exec.CommandContext(ctx, "sh", "-c", cmd.Text)
	proc.Stdout = e.out
	proc.Stderr = e.out
	if err := proc.Run(); err != nil {
		return errors.Wrap(err, errors.CodeCommandExecution, fmt.Sprintf("az command for %s exited with error", cmd.Entity))
	}
	return nil
}
