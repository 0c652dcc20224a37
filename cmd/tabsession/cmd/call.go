package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tabsession/pkg/pipeline"
	"github.com/spf13/cobra"
)

// ErrSessionExpired is returned when renewal failed and the user must sign
// in again.
var ErrSessionExpired = errors.New("session expired: run tabsession login")

func newCallCmd(c *cli) *cobra.Command {
	var method, data string

	cmd := &cobra.Command{
		Use:   "call <path>",
		Short: "Call the protected API with the stored session",
		Long: `Sends one request to API_BASE_URL + path with the stored bearer token. A rejected
token is renewed once and the request retried; the renewed pair is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			var body io.Reader
			if data != "" {
				body = strings.NewReader(data)
			}
			req, err := http.NewRequestWithContext(cmd.Context(), strings.ToUpper(method),
				strings.TrimSuffix(c.cfg.APIBaseURL, "/")+"/"+strings.TrimPrefix(args[0], "/"), body)
			if err != nil {
				return err
			}
			if data != "" {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := session.API.Do(req)
			if err != nil {
				if pipeline.IsSessionExpired(err) {
					return fmt.Errorf("%w (%w)", ErrSessionExpired, err)
				}
				return err
			}
			defer resp.Body.Close()

			if _, err := io.Copy(cmd.OutOrStdout(), resp.Body); err != nil {
				return err
			}
			if resp.StatusCode >= http.StatusBadRequest {
				return fmt.Errorf("api answered %s", resp.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}
