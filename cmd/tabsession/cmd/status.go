package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"github.com/spf13/cobra"
)

type statusReport struct {
	Backend       string   `json:"backend"`
	Authenticated bool     `json:"authenticated"`
	Username      string   `json:"username,omitempty"`
	Scopes        []string `json:"scopes,omitempty"`
	ExpiresIn     string   `json:"expires_in,omitempty"`
	AccessState   string   `json:"access_token"`
	HasRefresh    bool     `json:"refresh_token"`
}

func newStatusCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			report := statusReport{Backend: c.cfg.SessionBackend, AccessState: "absent"}
			_, report.HasRefresh = session.Store.Get(tokenstore.Refresh)

			if access, ok := session.Store.Get(tokenstore.Access); ok {
				report.AccessState = "expired"
				if d, err := session.Codec.ExpiresIn(access); err == nil {
					report.Authenticated = true
					report.AccessState = "valid"
					report.ExpiresIn = d.Round(time.Second).String()
				}
				if claims, err := session.Codec.Decode(access); err == nil {
					report.Username = claims.Username()
					report.Scopes = claims.Scopes()
				} else {
					report.AccessState = "malformed"
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintf(out, "backend:       %s\n", report.Backend)
			fmt.Fprintf(out, "access token:  %s\n", report.AccessState)
			if report.ExpiresIn != "" {
				fmt.Fprintf(out, "expires in:    %s\n", report.ExpiresIn)
			}
			if report.Username != "" {
				fmt.Fprintf(out, "user:          %s\n", report.Username)
			}
			fmt.Fprintf(out, "refresh token: %t\n", report.HasRefresh)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
