package todos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hcollier/todo-api/cmd/cli/config"
	"github.com/hcollier/todo-api/cmd/cli/output"
	"github.com/hcollier/todo-api/internal/models"
)

// InitTodos registers todo CLI commands on the root command.
func InitTodos(rootCmd *cobra.Command) {
	todosCmd := &cobra.Command{
		Use:   "todos",
		Short: "Manage your todos",
		Long:  "List, add, and complete todos on the Todo API. Requires a stored token (run `todo signin` first).",
	}

	todosCmd.AddCommand(listCmd(), addCmd(), doneCmd())
	rootCmd.AddCommand(todosCmd)
}

// ==========================
// List Todos
// ==========================
func listCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			var todos []models.Todo
			if err := apiRequest("GET", "/api/todos", nil, &todos); err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(todos)
			}

			rows := make([][]interface{}, 0, len(todos))
			for _, t := range todos {
				done := " "
				if t.Completed {
					done = "x"
				}
				rows = append(rows, []interface{}{t.ID, t.Todo, done})
			}
			output.RenderTable([]string{"ID", "Todo", "Done"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON instead of a table")

	return cmd
}

// ==========================
// Add Todo
// ==========================
func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Add a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"todo": args[0], "completed": false}

			// The API returns the inserted row wrapped in a one-element array.
			var created []models.Todo
			if err := apiRequest("POST", "/api/todos", payload, &created); err != nil {
				return err
			}
			if len(created) != 1 {
				return fmt.Errorf("unexpected response from API")
			}

			fmt.Printf("Added todo %d: %s\n", created[0].ID, created[0].Todo)
			return nil
		},
	}
}

// ==========================
// Mark Todo Done
// ==========================
func doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a todo as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid todo id: %s", args[0])
			}

			// Fetch current text so the update keeps it unchanged.
			var current models.Todo
			if err := apiRequest("GET", "/api/todos/"+strconv.Itoa(id), nil, &current); err != nil {
				return err
			}

			payload := map[string]interface{}{"todo": current.Todo, "completed": true}
			var updated models.Todo
			if err := apiRequest("PUT", "/api/todos/"+strconv.Itoa(id), payload, &updated); err != nil {
				return err
			}

			fmt.Printf("Completed todo %d: %s\n", updated.ID, updated.Todo)
			return nil
		},
	}
}

func apiRequest(method, path string, payload interface{}, out interface{}) error {
	token, err := config.LoadToken()
	if err != nil {
		return fmt.Errorf("not signed in (run `todo signin` first): %w", err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("API error: status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return err
		}
	}

	return nil
}
