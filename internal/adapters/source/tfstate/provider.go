package tfstate

import (
	"context"
	"fmt"
	"os"
	"sync"

	tfjson "github.com/hashicorp/terraform-json"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/ports"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

const ProviderTypeTFState = "tfstate"

type Config struct {
	FilePath string `yaml:"path" mapstructure:"path" validate:"required"`
}

// Provider reads declared entities from a Terraform state snapshot produced
// by `terraform show -json`. Unlike the HCL provider, state values are fully
// resolved, so no entity from this source carries unresolved expressions.
type Provider struct {
	filePath string
	logger   ports.Logger

	mu       sync.Mutex
	state    *tfjson.State
	parseErr error
}

func NewProvider(cfg Config, logger ports.Logger) (*Provider, error) {
	filePath := cfg.FilePath
	if filePath == "" {
		return nil, errors.New(errors.CodeConfigValidation, "terraform state provider requires a non-empty path")
	}
	return &Provider{
		filePath: filePath,
		logger:   logger.WithFields(map[string]any{"provider": ProviderTypeTFState, "state_file": filePath}),
	}, nil
}

func (p *Provider) Type() string { return ProviderTypeTFState }

func (p *Provider) ListEntities(ctx context.Context) ([]domain.RawEntity, []domain.Diagnostic, error) {
	state, err := p.parseAndCache(ctx)
	if err != nil {
		return nil, nil, err
	}

	if state.Values == nil || state.Values.RootModule == nil {
		return nil, nil, nil
	}

	var entities []domain.RawEntity
	var diagnostics []domain.Diagnostic
	collectModule(state.Values.RootModule, &entities, &diagnostics)

	p.logger.Debugf(ctx, "Loaded %d entities from state snapshot", len(entities))
	return entities, diagnostics, nil
}

func (p *Provider) parseAndCache(ctx context.Context) (*tfjson.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != nil || p.parseErr != nil {
		return p.state, p.parseErr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.parseErr = errors.Wrap(err, errors.CodeSourceReadError, "failed to read state file")
		return nil, p.parseErr
	}
	if len(raw) == 0 {
		p.parseErr = errors.NewUserFacing(errors.CodeSourceParseError, "state file is empty",
			"Run 'terraform show -json' against a real state and point the provider at its output.")
		return nil, p.parseErr
	}

	var state tfjson.State
	if err := state.UnmarshalJSON(raw); err != nil {
		p.parseErr = errors.WrapUserFacing(err, errors.CodeSourceParseError, "invalid state snapshot JSON",
			"The file must be the output of 'terraform show -json', not a raw .tfstate file.")
		return nil, p.parseErr
	}

	p.state = &state
	return p.state, nil
}

func collectModule(mod *tfjson.StateModule, entities *[]domain.RawEntity, diagnostics *[]domain.Diagnostic) {
	for _, res := range mod.Resources {
		if res.Mode != tfjson.ManagedResourceMode {
			continue
		}
		kind, ok := domain.KindForTerraformType(res.Type)
		if !ok {
			*diagnostics = append(*diagnostics, domain.Diagnostic{
				Code:    string(errors.CodeUnknownEntityType),
				Message: fmt.Sprintf("resource type %q is not supported and was skipped", res.Type),
				Subject: res.Address,
			})
			continue
		}

		props := res.AttributeValues
		if props == nil {
			props = map[string]any{}
		}
		name := res.Name
		if n, isString := props["name"].(string); isString && n != "" {
			name = n
		}
		region := ""
		if loc, isString := props["location"].(string); isString {
			region = loc
		}

		*entities = append(*entities, domain.RawEntity{
			Kind:       kind,
			Name:       name,
			Source:     domain.SourceDeclared,
			Location:   res.Address,
			Region:     region,
			Properties: props,
		})
	}

	for _, child := range mod.ChildModules {
		collectModule(child, entities, diagnostics)
	}
}
