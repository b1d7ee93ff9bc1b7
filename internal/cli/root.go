package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type globalFlags struct {
	port       string
	configPath string
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "live-quiz",
		Short:         "Live classroom quiz sessions over REST and WebSocket",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	addGlobalFlags(cmd.PersistentFlags(), flags)
	cmd.AddCommand(NewStartCmd(flags))
	cmd.AddCommand(NewMigrateCmd(flags))
	cmd.AddCommand(NewTokenCmd(flags))
	cmd.AddCommand(NewConfigCmd(flags))
	return cmd
}

func addGlobalFlags(fs *pflag.FlagSet, flags *globalFlags) {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}
	fs.StringVar(&flags.port, "port", "", "port to listen on (overrides server.port and PORT)")
	fs.StringVar(&flags.configPath, "config", envConfig, "path to YAML config")
}
