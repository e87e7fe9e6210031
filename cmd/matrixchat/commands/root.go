package commands

import (
	"github.com/spf13/cobra"

	"matrixchat/internal/app"
)

var (
	home       string
	configPath string
	logLevel   string
	appCtx     *app.App
)

// Execute runs the matrixchat command tree.
func Execute() error {
	root := &cobra.Command{
		Use:          "matrixchat",
		Short:        "Group chat keyed by a tree Diffie-Hellman agreement",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if home != "" {
				cfg.Home = home
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			appCtx, err = app.New(cfg)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appCtx != nil {
				appCtx.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "profile dir (default ~/.matrixchat)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(joinCmd(), profileCmd())
	return root.Execute()
}
