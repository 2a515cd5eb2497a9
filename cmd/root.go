package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cloudkinetics/azdrift/internal/app"
	apperrors "github.com/cloudkinetics/azdrift/internal/errors"
)

var (
	cfgFile       string
	logLevel      string
	logFormat     string
	resourceGroup string
	subscription  string
	sourceType    string
	remediate     bool
	dryRun        bool
	autoApprove   bool
)

var rootCmd = &cobra.Command{
	Use:   "azdrift",
	Short: "Detects configuration drift between Terraform declarations and live Azure resources.",
	Long: `azdrift compares resources declared in Terraform configuration or state
against their actual configuration in an Azure resource group, reports any
detected drift with a risk classification, and can suggest or apply
corrective az CLI commands.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		application, bootstrapErr := app.BuildApplicationFromViper(cmd.Context(), viper.GetViper())
		if bootstrapErr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Application initialization failed: %v\n", bootstrapErr)
			if appErr := (*apperrors.AppError)(nil); errors.As(bootstrapErr, &appErr) {
				if appErr.IsUserFacing {
					fmt.Fprintf(os.Stderr, "Error Details: %s\n", appErr.Message)
					if appErr.SuggestedAction != "" {
						fmt.Fprintf(os.Stderr, "Suggestion: %s\n", appErr.SuggestedAction)
					}
				}
			}
			return bootstrapErr
		}
		defer application.Cleanup()

		if runErr := application.Run(cmd.Context()); runErr != nil {
			userMsg, suggestion, _ := apperrors.GetUserFacingMessage(runErr)
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", userMsg)
			if suggestion != "" {
				fmt.Fprintf(os.Stderr, "Suggestion: %s\n", suggestion)
			}
			return runErr
		}
		return nil
	},
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default is .azdrift.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log format (text, json)")
	rootCmd.PersistentFlags().StringVarP(&resourceGroup, "resource-group", "g", "", "Azure resource group to compare against")
	rootCmd.PersistentFlags().StringVar(&subscription, "subscription", "", "Azure subscription ID")
	rootCmd.PersistentFlags().StringVar(&sourceType, "source", "", "Declared source provider (tfhcl, tfstate)")
	rootCmd.PersistentFlags().BoolVar(&remediate, "remediate", false, "Offer to run the suggested az commands after the report")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Print remediation commands without executing them")
	rootCmd.PersistentFlags().BoolVar(&autoApprove, "auto-approve", false, "Skip the per-command confirmation prompt")

	viper.BindPFlag("settings.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("settings.log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("resource_group", rootCmd.PersistentFlags().Lookup("resource-group"))
	viper.BindPFlag("platform.azure.subscription_id", rootCmd.PersistentFlags().Lookup("subscription"))
	viper.BindPFlag("source.provider", rootCmd.PersistentFlags().Lookup("source"))
	viper.BindPFlag("remediation.enabled", rootCmd.PersistentFlags().Lookup("remediate"))
	viper.BindPFlag("remediation.dry_run", rootCmd.PersistentFlags().Lookup("dry-run"))
	viper.BindPFlag("remediation.auto_approve", rootCmd.PersistentFlags().Lookup("auto-approve"))

	viper.SetEnvPrefix("AZDRIFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func initializeConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".azdrift")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return apperrors.Wrap(err, apperrors.CodeConfigReadError, "failed to read config file")
		}
	}
	return nil
}
