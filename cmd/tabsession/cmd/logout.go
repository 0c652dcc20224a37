package cmd

import (
	"fmt"

	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"github.com/spf13/cobra"
)

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the refresh token and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			if refresh, ok := session.Store.Get(tokenstore.Refresh); ok {
				if err := session.Issuer.RevokeToken(cmd.Context(), refresh); err != nil {
					c.logger.Warn("revoke failed", "err", err)
				}
			}

			if err := session.Store.Clear(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}
