package cmd

import (
	"github.com/aussiebroadwan/tabsession/internal/session/app"
	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser-facing session host",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.Port = port
			}

			application, err := app.NewWithLogger(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8081, "HTTP port (overrides PORT)")
	return cmd
}
