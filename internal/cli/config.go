package cli

import (
	"github.com/spf13/cobra"

	"live-quiz-service/internal/config"
)

// NewConfigCmd prints the effective configuration after environment overrides.
func NewConfigCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			if flags.port != "" {
				cfg.Server.Port = flags.port
			}
			return cfg.WriteYAML(cmd.OutOrStdout())
		},
	}
}
