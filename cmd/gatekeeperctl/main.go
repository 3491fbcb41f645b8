package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	APIKey    string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	u := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, u, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("X-Admin-API-Key", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("GATEKEEPER_ADMIN_URL", "http://localhost:8080")
		apiKey  = envOr("GATEKEEPER_ADMIN_KEY", "")
		out     = envOr("GATEKEEPER_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "gatekeeperctl",
		Short: "CLI admin para el gateway (sesiones y tokens remember-me)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				return fmt.Errorf("falta API key (flag --admin-api-key o env GATEKEEPER_ADMIN_KEY)")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&baseURL, "admin-api-url", baseURL, "URL base del gateway (env GATEKEEPER_ADMIN_URL)")
	root.PersistentFlags().StringVar(&apiKey, "admin-api-key", apiKey, "API key admin (env GATEKEEPER_ADMIN_KEY)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}
	// Los flags se resuelven recién al ejecutar el comando.
	sync := func() {
		cl.BaseURL, cl.APIKey, cl.OutFormat = baseURL, apiKey, out
	}

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Listar sesiones activas",
		RunE: func(cmd *cobra.Command, args []string) error {
			sync()
			status, body, err := cl.do("GET", "/admin/sessions", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	revokeCmd := &cobra.Command{
		Use:   "revoke <sid>",
		Short: "Revocar una sesión puntual",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sync()
			status, body, err := cl.do("DELETE", "/admin/sessions/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	revokeTokensCmd := &cobra.Command{
		Use:   "revoke-tokens <username>",
		Short: "Revocar todas las series remember-me de un usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sync()
			status, body, err := cl.do("DELETE", "/admin/tokens/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	root.AddCommand(sessionsCmd, revokeCmd, revokeTokensCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
