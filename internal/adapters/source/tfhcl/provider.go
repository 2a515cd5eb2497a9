package tfhcl

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/hcl/v2"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/ports"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

const ProviderTypeTFHCL = "tfhcl"

type Config struct {
	Directory string   `yaml:"directory" mapstructure:"directory" validate:"required"`
	VarFiles  []string `yaml:"var_files" mapstructure:"var_files"`
	Workspace string   `yaml:"workspace" mapstructure:"workspace"`
}

// Provider reads azurerm resource blocks from a directory of Terraform
// configuration files. Expressions that cannot be resolved without a real
// Terraform run (data sources, module outputs, unknown references) are
// preserved as unresolved values rather than dropped.
type Provider struct {
	cfg    Config
	logger ports.Logger

	mu          sync.Mutex
	parsed      bool
	cached      []domain.RawEntity
	cachedDiags []domain.Diagnostic
	parseErr    error
}

func NewProvider(cfg Config, logger ports.Logger) (*Provider, error) {
	if cfg.Directory == "" {
		return nil, errors.New(errors.CodeConfigValidation, "terraform HCL provider requires a non-empty directory path")
	}
	if cfg.Workspace == "" {
		cfg.Workspace = "default"
	}
	return &Provider{cfg: cfg, logger: logger}, nil
}

func (p *Provider) Type() string {
	return ProviderTypeTFHCL
}

func (p *Provider) ListEntities(ctx context.Context) ([]domain.RawEntity, []domain.Diagnostic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.parsed {
		return p.cached, p.cachedDiags, p.parseErr
	}
	p.parsed = true
	p.cached, p.cachedDiags, p.parseErr = p.load(ctx)
	return p.cached, p.cachedDiags, p.parseErr
}

func (p *Provider) load(ctx context.Context) ([]domain.RawEntity, []domain.Diagnostic, error) {
	files, parseDiags, err := ParseDirectory(p.cfg.Directory)
	if err != nil {
		return nil, nil, err
	}
	if parseDiags.HasErrors() {
		return nil, nil, errors.New(errors.CodeHCLParseError,
			fmt.Sprintf("fatal errors parsing HCL in %s: %s", p.cfg.Directory, parseDiags.Error()))
	}

	evalCtx, ctxDiags := BuildEvalContext(ctx, files, p.cfg, p.logger)
	if evalCtx == nil {
		return nil, nil, errors.New(errors.CodeHCLEvalError,
			fmt.Sprintf("failed building evaluation context: %s", ctxDiags.Error()))
	}

	blocks := FindResourceBlocks(files)
	p.logger.Debugf(ctx, "Found %d resource blocks in %s", len(blocks), p.cfg.Directory)

	entities := make([]domain.RawEntity, 0, len(blocks))
	var diagnostics []domain.Diagnostic

	for _, block := range blocks {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		tfType := block.Labels[0]
		kind, ok := domain.KindForTerraformType(tfType)
		if !ok {
			diagnostics = append(diagnostics, domain.Diagnostic{
				Code:    string(errors.CodeUnknownEntityType),
				Message: fmt.Sprintf("resource type %q is not supported and was skipped", tfType),
				Subject: fmt.Sprintf("%s.%s", tfType, block.Labels[1]),
			})
			continue
		}

		props, evalDiags := EvaluateResourceBlock(block, evalCtx, sourceSnippet(files))
		for _, d := range evalDiags {
			diagnostics = append(diagnostics, domain.Diagnostic{
				Code:    string(errors.CodeHCLEvalError),
				Message: d.Error(),
				Subject: fmt.Sprintf("%s.%s", tfType, block.Labels[1]),
			})
		}

		entities = append(entities, blockToRawEntity(block, kind, props))
	}

	return entities, diagnostics, nil
}

func blockToRawEntity(block *hcl.Block, kind domain.EntityKind, props map[string]any) domain.RawEntity {
	name := block.Labels[1]
	if n, ok := props["name"].(string); ok && n != "" {
		name = n
	}
	region := ""
	if loc, ok := props["location"].(string); ok {
		region = loc
	}
	return domain.RawEntity{
		Kind:       kind,
		Name:       name,
		Source:     domain.SourceDeclared,
		Location:   block.DefRange.String(),
		Region:     region,
		Properties: props,
	}
}
