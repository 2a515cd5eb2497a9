package json

import (
	"context"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/ports"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

const ReporterTypeJSON = "json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	OutputPath string `yaml:"output_path" mapstructure:"output_path"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	var w io.Writer = os.Stdout
	if cfg.OutputPath != "" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to create JSON report output file")
		}
		w = f
	}
	return &Reporter{config: cfg, writer: w, logger: logger}, nil
}

func (r *Reporter) Type() string { return ReporterTypeJSON }

type jsonReport struct {
	ResourceGroup string              `json:"resource_group"`
	GeneratedAt   time.Time           `json:"generated_at"`
	Counts        domain.ReportCounts `json:"counts"`
	Summary       jsonRiskSummary     `json:"risk_summary"`
	Entities      []jsonEntity        `json:"entities"`
	Diagnostics   []domain.Diagnostic `json:"diagnostics,omitempty"`
	Commands      []jsonCommand       `json:"commands,omitempty"`
}

type jsonCommand struct {
	Text        string `json:"text"`
	Description string `json:"description"`
	Action      string `json:"action"`
	Entity      string `json:"entity"`
	Risk        string `json:"risk"`
}

type jsonRiskSummary struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

type jsonEntity struct {
	Kind           string     `json:"kind"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	Risk           string     `json:"risk"`
	Region         string     `json:"region,omitempty"`
	SourceLocation string     `json:"source_location,omitempty"`
	Diffs          []jsonDiff `json:"diffs,omitempty"`
}

type jsonDiff struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Declared string `json:"declared,omitempty"`
	Live     string `json:"live,omitempty"`
	Risk     string `json:"risk"`
	Detail   string `json:"detail,omitempty"`
}

func (r *Reporter) Report(ctx context.Context, rep domain.DriftReport) error {
	out := jsonReport{
		ResourceGroup: rep.ResourceGroup,
		GeneratedAt:   rep.GeneratedAt,
		Counts:        rep.Counts,
		Summary:       jsonRiskSummary{Low: rep.Summary.Low, Medium: rep.Summary.Medium, High: rep.Summary.High},
		Entities:      make([]jsonEntity, 0, len(rep.Entities)),
		Diagnostics:   rep.Diagnostics,
	}

	for _, entity := range rep.Entities {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		item := jsonEntity{
			Kind:           entity.Kind.String(),
			Name:           entity.Name,
			Status:         string(entity.Status),
			Risk:           entity.Risk.String(),
			Region:         entity.Region,
			SourceLocation: entity.SourceLocation,
		}
		for _, diff := range entity.Diffs {
			jd := jsonDiff{
				Path:   diff.Path,
				Kind:   string(diff.Kind),
				Risk:   diff.Risk.String(),
				Detail: diff.Detail,
			}
			if diff.Declared != nil {
				jd.Declared = diff.Declared.String()
			}
			if diff.Live != nil {
				jd.Live = diff.Live.String()
			}
			item.Diffs = append(item.Diffs, jd)
		}
		out.Entities = append(out.Entities, item)
	}

	for _, cmd := range rep.Commands {
		out.Commands = append(out.Commands, jsonCommand{
			Text:        cmd.Text,
			Description: cmd.Description,
			Action:      string(cmd.Action),
			Entity:      cmd.Entity.String(),
			Risk:        cmd.Risk.String(),
		})
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		r.logger.Errorf(ctx, err, "Failed to encode JSON report")
		return errors.Wrap(err, errors.CodeInternal, "failed to encode JSON report")
	}
	return nil
}
