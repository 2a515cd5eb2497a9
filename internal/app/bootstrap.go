package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/cloudkinetics/azdrift/internal/adapters/platform/azure"
	"github.com/cloudkinetics/azdrift/internal/adapters/source/gitrepo"
	"github.com/cloudkinetics/azdrift/internal/adapters/source/tfhcl"
	"github.com/cloudkinetics/azdrift/internal/adapters/source/tfstate"
	"github.com/cloudkinetics/azdrift/internal/config"
	"github.com/cloudkinetics/azdrift/internal/core/diffing"
	"github.com/cloudkinetics/azdrift/internal/core/normalize"
	"github.com/cloudkinetics/azdrift/internal/core/policy"
	"github.com/cloudkinetics/azdrift/internal/core/ports"
	"github.com/cloudkinetics/azdrift/internal/core/risk"
	"github.com/cloudkinetics/azdrift/internal/core/service"
	"github.com/cloudkinetics/azdrift/internal/errors"
	"github.com/cloudkinetics/azdrift/internal/log"
	"github.com/cloudkinetics/azdrift/internal/remediation"
	jsonreport "github.com/cloudkinetics/azdrift/internal/reporting/json"
	"github.com/cloudkinetics/azdrift/internal/reporting/markdown"
	"github.com/cloudkinetics/azdrift/internal/reporting/text"
)

func BuildApplicationFromViper(ctx context.Context, v *viper.Viper) (*Application, error) {
	cfg := config.DefaultConfig()
	// Comma-separated flag and env values decode into slice fields
	// (e.g. AZDRIFT_SETTINGS_REPORTERS="text,json").
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseError, "failed to unmarshal configuration")
	}

	logCfg := log.Config{Level: cfg.Settings.LogLevel, Format: cfg.Settings.LogFormat}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
	}
	logger.Infof(ctx, "Logger initialized (Level: %s, Format: %s)", cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	} else {
		logger.Debugf(ctx, "No configuration file found, using defaults/env/flags.")
	}

	if err := validateConfig(ctx, cfg); err != nil {
		logger.Errorf(ctx, err, "Configuration validation failed")
		return nil, err
	}
	logger.Debugf(ctx, "Configuration validated successfully")

	app := &Application{Logger: logger, Config: cfg}

	registry := service.NewComponentRegistry()

	sourceProvider, err := buildSourceProvider(ctx, cfg, logger, app)
	if err != nil {
		app.Cleanup()
		return nil, err
	}
	if err = registry.RegisterSourceProvider(sourceProvider); err != nil {
		app.Cleanup()
		return nil, err
	}

	scanLog := logger.WithFields(map[string]any{"scanner": azure.ScannerTypeAzure})
	cred, err := azure.DefaultCredential()
	if err != nil {
		app.Cleanup()
		return nil, err
	}
	scanner, err := azure.NewScanner(*cfg.Platform.Azure, cred, scanLog)
	if err != nil {
		app.Cleanup()
		return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to initialize Azure scanner")
	}
	if err = registry.RegisterPlatformScanner(scanner); err != nil {
		app.Cleanup()
		return nil, err
	}
	scanLog.Infof(ctx, "Using Azure scanner for subscription %s", cfg.Platform.Azure.SubscriptionID)

	reporters, err := buildReporters(ctx, cfg, logger, registry)
	if err != nil {
		app.Cleanup()
		return nil, err
	}

	pol := policy.Default()
	planner := remediation.NewGenerator(cfg.ResourceGroup, cfg.Platform.Azure.SubscriptionID)

	logger.Debugf(ctx, "Initializing analysis engine")
	engine, err := service.NewDriftAnalysisEngine(
		sourceProvider, scanner, reporters,
		normalize.New(pol), diffing.New(pol), risk.New(pol), planner,
		logger.WithFields(map[string]any{"component": "engine"}),
		cfg.ResourceGroup, cfg.Settings.Concurrency,
	)
	if err != nil {
		app.Cleanup()
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize drift analysis engine")
	}
	app.Engine = engine

	if cfg.Remediation.Enabled {
		execCfg := remediation.ExecutorConfig{
			DryRun:      cfg.Remediation.DryRun,
			AutoApprove: cfg.Remediation.AutoApprove,
		}
		app.Executor = remediation.NewExecutor(execCfg, logger.WithFields(map[string]any{"component": "executor"}))
		logger.Infof(ctx, "Remediation enabled (dry run: %t, auto approve: %t)", execCfg.DryRun, execCfg.AutoApprove)
	}

	logger.Infof(ctx, "Application bootstrap complete")
	return app, nil
}

func validateConfig(ctx context.Context, cfg *config.Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.StructCtx(ctx, cfg)
	if err == nil {
		return nil
	}
	var errorDetails strings.Builder
	errorDetails.WriteString("Configuration validation failed:")
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.CodeConfigValidation, "configuration validation failed")
	}
	for _, fe := range validationErrors {
		errorDetails.WriteString(fmt.Sprintf("\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.NewUserFacing(errors.CodeConfigValidation, errorDetails.String(), "Please check your configuration file or flags.")
}

// buildSourceProvider resolves the declared-side provider. A configured git
// section is fetched first and its checkout becomes the tfhcl directory; the
// clone is registered on the application for cleanup after the run.
func buildSourceProvider(ctx context.Context, cfg *config.Config, logger ports.Logger, app *Application) (ports.SourceProvider, error) {
	switch cfg.Source.Provider {
	case tfhcl.ProviderTypeTFHCL:
		provLog := logger.WithFields(map[string]any{"provider": tfhcl.ProviderTypeTFHCL})
		hclCfg := *cfg.Source.TFHCL
		if cfg.Source.Git != nil {
			fetcher, err := gitrepo.NewFetcher(*cfg.Source.Git, provLog)
			if err != nil {
				return nil, err
			}
			dir, err := fetcher.Fetch(ctx)
			if err != nil {
				return nil, err
			}
			app.cleanup = fetcher.Cleanup
			hclCfg.Directory = dir
		}
		provider, err := tfhcl.NewProvider(hclCfg, provLog)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to initialize Terraform configuration provider")
		}
		provLog.Infof(ctx, "Using Terraform configuration provider: %s (Workspace: %s)", hclCfg.Directory, hclCfg.Workspace)
		return provider, nil
	case tfstate.ProviderTypeTFState:
		provLog := logger.WithFields(map[string]any{"provider": tfstate.ProviderTypeTFState})
		if cfg.Source.TFState == nil {
			return nil, errors.NewUserFacing(errors.CodeConfigValidation, "source.tfstate section is required for the tfstate provider", "Set source.tfstate.path to a 'terraform show -json' output file.")
		}
		provider, err := tfstate.NewProvider(*cfg.Source.TFState, provLog)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to initialize state snapshot provider")
		}
		provLog.Infof(ctx, "Using state snapshot provider: %s", cfg.Source.TFState.FilePath)
		return provider, nil
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("invalid source provider type: %s", cfg.Source.Provider), "Supported: tfhcl, tfstate")
	}
}

func buildReporters(ctx context.Context, cfg *config.Config, logger ports.Logger, registry *service.ComponentRegistry) ([]ports.Reporter, error) {
	defaults := config.DefaultConfig().Settings.Reporter
	reporters := make([]ports.Reporter, 0, len(cfg.Settings.Reporters))
	for _, name := range cfg.Settings.Reporters {
		reportLog := logger.WithFields(map[string]any{"component": "reporter", "type": name})
		var (
			reporter ports.Reporter
			err      error
		)
		switch name {
		case text.ReporterTypeText:
			textCfg := cfg.Settings.Reporter.Text
			if textCfg == nil {
				textCfg = defaults.Text
			}
			reporter, err = text.NewReporter(*textCfg, reportLog)
		case jsonreport.ReporterTypeJSON:
			jsonCfg := cfg.Settings.Reporter.JSON
			if jsonCfg == nil {
				jsonCfg = defaults.JSON
			}
			reporter, err = jsonreport.NewReporter(*jsonCfg, reportLog)
		case markdown.ReporterTypeMarkdown:
			mdCfg := cfg.Settings.Reporter.Markdown
			if mdCfg == nil {
				mdCfg = defaults.Markdown
			}
			reporter, err = markdown.NewReporter(*mdCfg, reportLog)
		default:
			return nil, errors.NewUserFacing(errors.CodeConfigValidation,
				fmt.Sprintf("unsupported reporter type: %s", name), "Supported: text, json, markdown")
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("failed to initialize %s reporter", name))
		}
		if err = registry.RegisterReporter(reporter); err != nil {
			return nil, err
		}
		reporters = append(reporters, reporter)
		reportLog.Infof(ctx, "Using %s reporter", name)
	}
	return reporters, nil
}
