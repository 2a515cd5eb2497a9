package config

import (
	"github.com/cloudkinetics/azdrift/internal/adapters/platform/azure"
	"github.com/cloudkinetics/azdrift/internal/adapters/source/gitrepo"
	"github.com/cloudkinetics/azdrift/internal/adapters/source/tfhcl"
	"github.com/cloudkinetics/azdrift/internal/adapters/source/tfstate"
	"github.com/cloudkinetics/azdrift/internal/log"
	jsonreport "github.com/cloudkinetics/azdrift/internal/reporting/json"
	"github.com/cloudkinetics/azdrift/internal/reporting/markdown"
	"github.com/cloudkinetics/azdrift/internal/reporting/text"
)

type Config struct {
	Settings      SettingsConfig    `yaml:"settings" mapstructure:"settings"`
	Source        SourceConfig      `yaml:"source" mapstructure:"source"`
	Platform      PlatformConfig    `yaml:"platform" mapstructure:"platform"`
	Remediation   RemediationConfig `yaml:"remediation" mapstructure:"remediation"`
	ResourceGroup string            `yaml:"resource_group" mapstructure:"resource_group" validate:"required"`
}

type SettingsConfig struct {
	LogLevel    log.Level       `yaml:"log_level" mapstructure:"log_level"`
	LogFormat   log.Format      `yaml:"log_format" mapstructure:"log_format"`
	Concurrency int             `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=0"`
	Reporters   []string        `yaml:"reporters" mapstructure:"reporters" validate:"min=1,dive,oneof=text json markdown"`
	Reporter    ReporterConfigs `yaml:"reporter_config" mapstructure:"reporter_config"`
}

// SourceConfig selects where declared resources come from. Provider names the
// active provider ("tfhcl" or "tfstate"); Git, when set, clones a repository
// first and points the tfhcl provider at the checkout.
type SourceConfig struct {
	Provider string          `yaml:"provider" mapstructure:"provider" validate:"required,oneof=tfhcl tfstate"`
	TFHCL    *tfhcl.Config   `yaml:"tfhcl,omitempty" mapstructure:"tfhcl"`
	TFState  *tfstate.Config `yaml:"tfstate,omitempty" mapstructure:"tfstate"`
	Git      *gitrepo.Config `yaml:"git,omitempty" mapstructure:"git"`
}

type PlatformConfig struct {
	Azure *azure.Config `yaml:"azure" mapstructure:"azure" validate:"required"`
}

type RemediationConfig struct {
	Enabled     bool `yaml:"enabled" mapstructure:"enabled"`
	DryRun      bool `yaml:"dry_run" mapstructure:"dry_run"`
	AutoApprove bool `yaml:"auto_approve" mapstructure:"auto_approve"`
}

type ReporterConfigs struct {
	Text     *text.Config       `yaml:"text,omitempty" mapstructure:"text"`
	JSON     *jsonreport.Config `yaml:"json,omitempty" mapstructure:"json"`
	Markdown *markdown.Config   `yaml:"markdown,omitempty" mapstructure:"markdown"`
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:    log.LevelInfo,
			LogFormat:   log.FormatText,
			Concurrency: 10,
			Reporters:   []string{text.ReporterTypeText},
			Reporter: ReporterConfigs{
				Text:     &text.Config{NoColor: false},
				JSON:     &jsonreport.Config{},
				Markdown: &markdown.Config{OutputPath: "drift_report.md"},
			},
		},
		Source: SourceConfig{
			Provider: tfhcl.ProviderTypeTFHCL,
			TFHCL:    &tfhcl.Config{Directory: ".", Workspace: "default"},
		},
		Platform: PlatformConfig{
			Azure: &azure.Config{RequestsPerSecond: 10},
		},
		Remediation: RemediationConfig{},
	}
}
