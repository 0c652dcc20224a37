package cmd

import (
	"fmt"

	"github.com/aussiebroadwan/tabsession/pkg/authsdk"
	"github.com/aussiebroadwan/tabsession/pkg/cryptox"
	"github.com/spf13/cobra"
)

func newLoginCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Print an authorization URL to start signing in",
		Long: `Generates a PKCE pair and state and prints the issuer authorization URL.
Open it in a browser, then pass the URL you are redirected to, together with
the printed verifier and state, to "tabsession exchange".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := cryptox.NewProofKeyPair()
			if err != nil {
				return fmt.Errorf("failed to generate PKCE pair: %w", err)
			}
			state, err := cryptox.GenerateToken(cryptox.TokenSize128)
			if err != nil {
				return fmt.Errorf("failed to generate state: %w", err)
			}

			issuer := authsdk.NewSDKClient(c.cfg.AuthBaseURL, c.cfg.AuthClientID)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, issuer.BuildAuthorizeURL(c.cfg.AuthRedirectURI, state, c.cfg.Scopes(), pair))
			fmt.Fprintln(out)
			fmt.Fprintf(out, "verifier: %s\n", pair.Verifier)
			fmt.Fprintf(out, "state:    %s\n", state)
			return nil
		},
	}
}
