// Package main implements the mlctl CLI for manual operations against
// the metalearnd HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the metalearnd HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mlctl",
	Short: "CLI for metalearnd HTTP server operations",
	Long: `mlctl is a command-line interface for interacting with the metalearnd
HTTP server. It provides commands for issuing learning requests, running
zero-shot capabilities, and managing per-user learning state.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8520", "metalearnd server URL")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(zeroShotCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check metalearnd server health",
	Long: `Check the health status of the metalearnd HTTP server.

Examples:
  # Check health
  mlctl health

  # Check health on a different server
  mlctl health --server http://localhost:9000`,
	RunE: runHealth,
}

var (
	learnUser     string
	learnSession  string
	learnTaskType string
	learnExpected string
	learnDomain   string
)

// learnCmd issues one learning request
var learnCmd = &cobra.Command{
	Use:   "learn [input]",
	Short: "Issue a learning request",
	Long: `Issue one learning request with a text input, or "-" to read the
input from stdin.

Examples:
  # Ask for an adaptation
  mlctl learn --user alice --task chat "hello"

  # Teach the expected output
  mlctl learn --user alice --task chat --expect "hi there" "hello"

  # Read input from stdin
  cat prompt.txt | mlctl learn --user alice --task content_generation -`,
	Args: cobra.ExactArgs(1),
	RunE: runLearn,
}

var zeroShotTopic, zeroShotStyle string

// zeroShotCmd runs a static capability handler
var zeroShotCmd = &cobra.Command{
	Use:   "zeroshot <capability> <input>",
	Short: "Run a zero-shot capability handler",
	Long: `Run one of the static zero-shot capability handlers:
content_generation, sentiment_analysis, intent_classification,
style_transfer.

Examples:
  # Score sentiment
  mlctl zeroshot sentiment_analysis "This is great and wonderful"

  # Generate content on a topic
  mlctl zeroshot content_generation --topic technical "gophers"`,
	Args: cobra.ExactArgs(2),
	RunE: runZeroShot,
}

// stateCmd fetches a user's learning state
var stateCmd = &cobra.Command{
	Use:   "state <user>",
	Short: "Show a user's learning state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getJSON(fmt.Sprintf("/api/v1/users/%s/state", args[0]))
	},
}

// metricsCmd fetches a user's performance metrics
var metricsCmd = &cobra.Command{
	Use:   "metrics <user>",
	Short: "Show a user's performance metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getJSON(fmt.Sprintf("/api/v1/users/%s/metrics", args[0]))
	},
}

// resetCmd discards a user's learning state
var resetCmd = &cobra.Command{
	Use:   "reset <user>",
	Short: "Discard a user's learning state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := doRequest(http.MethodPost, fmt.Sprintf("/api/v1/users/%s/reset", args[0]), nil)
		if err != nil {
			return err
		}
		fmt.Println(string(body))
		return nil
	},
}

// exportCmd downloads a user's state snapshot
var exportCmd = &cobra.Command{
	Use:   "export <user>",
	Short: "Export a user's learning state as JSON",
	Long: `Export a user's complete learning state as a JSON snapshot on
stdout. The snapshot can later be re-imported with "mlctl import".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getJSON(fmt.Sprintf("/api/v1/users/%s/export", args[0]))
	},
}

// importCmd uploads a state snapshot
var importCmd = &cobra.Command{
	Use:   "import <user> [file]",
	Short: "Import a learning state snapshot for a user",
	Long: `Import a JSON state snapshot for a user, from a file or stdin.

Examples:
  # Import from a file
  mlctl import alice snapshot.json

  # Import from stdin
  mlctl export alice | mlctl import alice-copy -`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runImport,
}

// HealthResponse matches internal/httpapi/server.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// doRequest performs one request against the server and returns the
// response body, treating non-2xx statuses as errors.
func doRequest(method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, string(respBody))
	}
	return respBody, nil
}

// getJSON fetches a path and pretty-prints the JSON response.
func getJSON(path string) error {
	body, err := doRequest(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	body, err := doRequest(http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Server status: %s\n", health.Status)
	return nil
}

// runLearn handles the learn command
func runLearn(cmd *cobra.Command, args []string) error {
	input := args[0]
	if input == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		input = string(data)
	}

	payload := map[string]interface{}{
		"user_id":   learnUser,
		"task_type": learnTaskType,
		"input":     input,
	}
	if learnSession != "" {
		payload["session_id"] = learnSession
	}
	if learnExpected != "" {
		payload["expected_output"] = learnExpected
	}
	if learnDomain != "" {
		payload["metadata"] = map[string]string{"domain": learnDomain}
	}

	body, err := doRequest(http.MethodPost, "/api/v1/learn", payload)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

// runZeroShot handles the zeroshot command
func runZeroShot(cmd *cobra.Command, args []string) error {
	capability, input := args[0], args[1]

	metadata := map[string]string{}
	if zeroShotTopic != "" {
		metadata["topic"] = zeroShotTopic
	}
	if zeroShotStyle != "" {
		metadata["style"] = zeroShotStyle
	}

	payload := map[string]interface{}{"input": input}
	if len(metadata) > 0 {
		payload["metadata"] = metadata
	}

	body, err := doRequest(http.MethodPost, "/api/v1/zeroshot/"+capability, payload)
	if err != nil {
		return err
	}
	fmt.Println(string(body))
	return nil
}

// runImport handles the import command
func runImport(cmd *cobra.Command, args []string) error {
	user := args[0]

	var data []byte
	var err error
	if len(args) == 1 || args[1] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[1])
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/api/v1/users/%s/import", serverURL, user), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %s: %s", resp.Status, string(body))
	}

	fmt.Printf("Imported learning state for %s\n", user)
	return nil
}

func init() {
	learnCmd.Flags().StringVar(&learnUser, "user", "", "user identifier (required)")
	learnCmd.Flags().StringVar(&learnSession, "session", "", "session identifier")
	learnCmd.Flags().StringVar(&learnTaskType, "task", "", "task type tag (required)")
	learnCmd.Flags().StringVar(&learnExpected, "expect", "", "expected output to teach")
	learnCmd.Flags().StringVar(&learnDomain, "domain", "", "domain tag for complexity analysis")
	_ = learnCmd.MarkFlagRequired("user")
	_ = learnCmd.MarkFlagRequired("task")

	zeroShotCmd.Flags().StringVar(&zeroShotTopic, "topic", "", "topic for content generation")
	zeroShotCmd.Flags().StringVar(&zeroShotStyle, "style", "", "style for style transfer")
}
