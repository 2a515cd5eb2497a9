package markdown

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/ports"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

const ReporterTypeMarkdown = "markdown"

type Config struct {
	OutputPath string `yaml:"output_path" mapstructure:"output_path"`
}

// Reporter renders the drift report as a Markdown document suitable for
// attaching to a pull request or change ticket.
type Reporter struct {
	config Config
	logger ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	if cfg.OutputPath == "" {
		cfg.OutputPath = "drift_report.md"
	}
	return &Reporter{config: cfg, logger: logger}, nil
}

func (r *Reporter) Type() string { return ReporterTypeMarkdown }

func (r *Reporter) Report(ctx context.Context, rep domain.DriftReport) error {
	f, err := os.Create(r.config.OutputPath)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to create markdown report file")
	}
	defer f.Close()

	if err := render(f, rep); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed writing markdown report")
	}
	r.logger.Infof(ctx, "Markdown report written to %s", r.config.OutputPath)
	return nil
}

func render(w io.Writer, rep domain.DriftReport) error {
	var b strings.Builder

	b.WriteString("# Azure Drift Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s  \n", rep.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "**Resource Group:** `%s`\n\n", rep.ResourceGroup)

	writeSummary(&b, rep)
	writeInventory(&b, rep)
	writeDifferences(&b, rep)
	writeCommands(&b, rep)

	b.WriteString("---\n\n")
	b.WriteString("Review the differences and suggested commands before applying any change.\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSummary(b *strings.Builder, rep domain.DriftReport) {
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Count |\n|--------|-------|\n")
	fmt.Fprintf(b, "| Declared entities | %d |\n", rep.Counts.TotalDeclared)
	fmt.Fprintf(b, "| Live entities | %d |\n", rep.Counts.TotalLive)
	fmt.Fprintf(b, "| Matched | %d |\n", rep.Counts.Matched)
	fmt.Fprintf(b, "| In sync | %d |\n", rep.Counts.InSync)
	fmt.Fprintf(b, "| Drifted | %d |\n", rep.Counts.Drifted)
	fmt.Fprintf(b, "| Missing in live | %d |\n", rep.Counts.MissingInLive)
	fmt.Fprintf(b, "| Unmanaged | %d |\n\n", rep.Counts.Unmanaged)

	if !rep.HasDrift() {
		b.WriteString("All resources are in sync.\n\n")
		return
	}

	b.WriteString("### Risk Assessment\n\n")
	b.WriteString("| Risk Level | Findings |\n|------------|----------|\n")
	fmt.Fprintf(b, "| High | %d |\n", rep.Summary.High)
	fmt.Fprintf(b, "| Medium | %d |\n", rep.Summary.Medium)
	fmt.Fprintf(b, "| Low | %d |\n\n", rep.Summary.Low)
}

func writeInventory(b *strings.Builder, rep domain.DriftReport) {
	byKind := make(map[domain.EntityKind][]string)
	for _, entity := range rep.Entities {
		byKind[entity.Kind] = append(byKind[entity.Kind], entity.Name)
	}
	if len(byKind) == 0 {
		return
	}

	b.WriteString("## Resource Inventory\n\n")
	b.WriteString("| Kind | Resources |\n|------|----------|\n")
	for _, kind := range domain.AllKinds() {
		names := byKind[kind]
		if len(names) == 0 {
			continue
		}
		sort.Strings(names)
		fmt.Fprintf(b, "| `%s` | %s |\n", kind, strings.Join(names, ", "))
	}
	b.WriteString("\n")
}

func writeDifferences(b *strings.Builder, rep domain.DriftReport) {
	b.WriteString("## Differences\n\n")
	if !rep.HasDrift() {
		b.WriteString("*No differences found.*\n\n")
		return
	}

	var missing, drifted, unmanaged []domain.EntityDrift
	for _, entity := range rep.Entities {
		switch entity.Status {
		case domain.StatusMissingInLive:
			missing = append(missing, entity)
		case domain.StatusDrifted:
			drifted = append(drifted, entity)
		case domain.StatusUnmanaged:
			unmanaged = append(unmanaged, entity)
		}
	}

	if len(missing) > 0 {
		b.WriteString("### Missing in Azure\n\n")
		b.WriteString("Declared but not found in the resource group:\n\n")
		b.WriteString("| Resource | Kind | Declared at |\n|----------|------|-------------|\n")
		for _, entity := range missing {
			fmt.Fprintf(b, "| `%s` | `%s` | %s |\n", entity.Name, entity.Kind, orNA(entity.SourceLocation))
		}
		b.WriteString("\n")
	}

	if len(drifted) > 0 {
		b.WriteString("### Configuration Drift\n\n")
		for _, entity := range drifted {
			fmt.Fprintf(b, "#### `%s` (%s, risk: %s)\n\n", entity.Name, entity.Kind, entity.Risk)
			b.WriteString("| Property | Change | Declared | Live | Risk |\n")
			b.WriteString("|----------|--------|----------|------|------|\n")
			for _, diff := range entity.Diffs {
				fmt.Fprintf(b, "| `%s` | %s | %s | %s | %s |\n",
					diff.Path, diff.Kind, valueCell(diff.Declared), valueCell(diff.Live), diff.Risk)
			}
			b.WriteString("\n")
		}
	}

	if len(unmanaged) > 0 {
		b.WriteString("### Resources Not Declared\n\n")
		b.WriteString("Present in the resource group but not in the compared configuration:\n\n")
		b.WriteString("| Resource | Kind | Region |\n|----------|------|--------|\n")
		for _, entity := range unmanaged {
			fmt.Fprintf(b, "| `%s` | `%s` | %s |\n", entity.Name, entity.Kind, orNA(entity.Region))
		}
		b.WriteString("\n> These resources are not managed by the compared configuration. No action is suggested for them.\n\n")
	}
}

func writeCommands(b *strings.Builder, rep domain.DriftReport) {
	b.WriteString("## Suggested CLI Commands\n\n")
	if len(rep.Commands) == 0 {
		b.WriteString("*No commands needed.*\n\n")
		return
	}

	b.WriteString("> Review each command carefully before execution.\n\n")
	for _, action := range []domain.CommandAction{domain.ActionCreate, domain.ActionUpdate} {
		var header string
		switch action {
		case domain.ActionCreate:
			header = "### Create Resources\n\n"
		case domain.ActionUpdate:
			header = "### Update Resources\n\n"
		}
		wroteHeader := false
		for _, cmd := range rep.Commands {
			if cmd.Action != action {
				continue
			}
			if !wroteHeader {
				b.WriteString(header)
				wroteHeader = true
			}
			fmt.Fprintf(b, "#### %s (risk: %s)\n\n", cmd.Description, cmd.Risk)
			fmt.Fprintf(b, "```bash\n%s\n```\n\n", cmd.Text)
		}
	}
}

func valueCell(v *domain.Value) string {
	if v == nil {
		return "*not set*"
	}
	s := v.String()
	if len(s) > 50 {
		s = s[:47] + "..."
	}
	return strings.ReplaceAll(s, "|", "\\|")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
