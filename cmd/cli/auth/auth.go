package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/hcollier/todo-api/cmd/cli/config"
)

// InitAuth registers auth-related CLI commands on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(signupCmd(), signinCmd(), logoutCmd())
}

// signupCmd creates an account and stores the returned token locally.
func signupCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account on the Todo API",
		Long:  "Register with email and password, then store the auth token for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate("/auth/signup", email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email to register with")
	cmd.Flags().StringVar(&password, "password", "", "Password to register with")

	return cmd
}

// signinCmd logs in and stores the returned token locally.
func signinCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in to the Todo API",
		Long:  "Authenticate with the Todo API and store an auth token for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate("/auth/signin", email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email to authenticate as")
	cmd.Flags().StringVar(&password, "password", "", "Password")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally stored auth token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func authenticate(path, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	var out struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"email": email, "password": password}
	if err := callJSONEndpoint(http.DefaultClient, path, payload, &out); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	if out.Token == "" {
		return fmt.Errorf("request succeeded but no token returned")
	}

	if err := config.SaveToken(out.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Println("Authenticated. Token stored locally.")
	return nil
}

func callJSONEndpoint(client *http.Client, path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", config.APIURL()+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return err
		}
	}

	return nil
}
