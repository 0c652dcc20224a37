package cmd

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tabsession/pkg/authsdk"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"github.com/spf13/cobra"
)

func newExchangeCmd(c *cli) *cobra.Command {
	var verifier, state string

	cmd := &cobra.Command{
		Use:   "exchange <callback-url>",
		Short: "Exchange an authorization callback for a credential pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, gotState, err := authsdk.ParseAuthorizationCallback(args[0])
			if err != nil {
				return err
			}
			if state != "" && subtle.ConstantTimeCompare([]byte(state), []byte(gotState)) != 1 {
				return errors.New("state mismatch: the callback does not belong to this login")
			}

			session, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			tokens, err := session.Issuer.ExchangeAuthorizationCode(cmd.Context(), code, c.cfg.AuthRedirectURI, verifier)
			if err != nil {
				return fmt.Errorf("code exchange failed: %w", err)
			}

			if err := session.Store.Set(tokens.AccessToken, tokens.RefreshToken); err != nil {
				if errors.Is(err, tokenstore.ErrBackend) {
					return fmt.Errorf("signed in, but the pair was not saved: %w", err)
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "signed in")
			return nil
		},
	}

	cmd.Flags().StringVar(&verifier, "verifier", "", "PKCE verifier printed by login")
	cmd.Flags().StringVar(&state, "state", "", "state printed by login; checked when set")
	_ = cmd.MarkFlagRequired("verifier")
	return cmd
}
