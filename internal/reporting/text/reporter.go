package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/ports"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `yaml:"no_color" mapstructure:"no_color"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	if cfg.NoColor || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
	return &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}, nil
}

func isTerminal(f *os.File) bool {
	stat, _ := f.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) Type() string { return ReporterTypeText }

func (r *Reporter) Report(ctx context.Context, rep domain.DriftReport) error {
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "Drift Report: resource group %q\n", rep.ResourceGroup)
	fmt.Fprintf(tw, "Generated: %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(tw, "Status\tKind\tName\tRisk\tDetails")
	fmt.Fprintln(tw, "------\t----\t----\t----\t-------")

	for _, entity := range rep.Entities {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var statusStr, details string
		switch entity.Status {
		case domain.StatusDrifted:
			statusStr = red("[DRIFT]")
			details = fmt.Sprintf("%d properties differ", len(entity.Diffs))
		case domain.StatusMissingInLive:
			statusStr = yellow("[MISSING]")
			details = "declared but not found in the resource group"
		case domain.StatusUnmanaged:
			statusStr = cyan("[UNMANAGED]")
			details = "present in the resource group but not declared"
		case domain.StatusInSync:
			statusStr = green("[OK]")
			details = "in sync"
		default:
			statusStr = "[UNKNOWN]"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			statusStr, entity.Kind, entity.Name, riskString(entity.Risk, red, yellow, green), details)

		for _, diff := range entity.Diffs {
			fmt.Fprintf(tw, "  %s\t%s\t\t%s\t%s\n",
				diff.Kind, diff.Path,
				riskString(diff.Risk, red, yellow, green),
				formatDiffValues(diff))
		}
	}

	fmt.Fprintln(tw, "\nSummary:")
	fmt.Fprintln(tw, "-------")
	fmt.Fprintf(tw, "Declared entities:\t%d\n", rep.Counts.TotalDeclared)
	fmt.Fprintf(tw, "Live entities:\t%d\n", rep.Counts.TotalLive)
	fmt.Fprintf(tw, "In sync:\t%s\n", green(rep.Counts.InSync))
	fmt.Fprintf(tw, "Drifted:\t%s\n", red(rep.Counts.Drifted))
	fmt.Fprintf(tw, "Missing in live:\t%s\n", yellow(rep.Counts.MissingInLive))
	fmt.Fprintf(tw, "Unmanaged:\t%s\n", cyan(rep.Counts.Unmanaged))
	fmt.Fprintf(tw, "Findings by risk:\thigh=%s medium=%s low=%s\n",
		red(rep.Summary.High), yellow(rep.Summary.Medium), green(rep.Summary.Low))

	if len(rep.Diagnostics) > 0 {
		fmt.Fprintln(tw, "\nDiagnostics:")
		for _, d := range rep.Diagnostics {
			fmt.Fprintf(tw, "  [%s]\t%s\t%s\n", d.Code, d.Subject, d.Message)
		}
	}
	return nil
}

func riskString(risk domain.RiskLevel, red, yellow, green func(a ...any) string) string {
	switch risk {
	case domain.RiskHigh:
		return red(risk.String())
	case domain.RiskMedium:
		return yellow(risk.String())
	default:
		return green(risk.String())
	}
}

func formatDiffValues(diff domain.PropertyDiff) string {
	const maxLen = 100
	declared, live := "<absent>", "<absent>"
	if diff.Declared != nil {
		declared = truncate(diff.Declared.String(), maxLen)
	}
	if diff.Live != nil {
		live = truncate(diff.Live.String(), maxLen)
	}
	out := fmt.Sprintf("declared: %s, live: %s", declared, live)
	if diff.Detail != "" {
		out += " (" + diff.Detail + ")"
	}
	return out
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
