package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"
)

// EnvCommand returns the env command, which reports which DIFFPILOT_
// environment variables are in effect without printing secret values.
func EnvCommand() *cli.Command {
	return &cli.Command{
		Name:   "env",
		Usage:  "Check environment-based configuration",
		Action: runEnvCheck,
	}
}

// ConfigCheckResult holds the result of environment validation
type ConfigCheckResult struct {
	Missing  []string          // Required variables that are missing
	Present  map[string]string // Variables that are set (masked values)
	Warnings []string          // Non-fatal warnings
}

// CheckRequiredConfig validates the environment variables the review command
// needs when no config file supplies them.
func CheckRequiredConfig() *ConfigCheckResult {
	result := &ConfigCheckResult{
		Missing: []string{},
		Present: make(map[string]string),
	}

	requiredVars := []string{
		"DIFFPILOT_GITHUB_TOKEN",
		"DIFFPILOT_AI_API_KEY",
	}
	for _, v := range requiredVars {
		val := os.Getenv(v)
		if val == "" {
			result.Missing = append(result.Missing, v)
		} else {
			result.Present[v] = maskSecret(val)
		}
	}

	optionalVars := []string{
		"DIFFPILOT_AI_MODEL",
		"DIFFPILOT_GITHUB_BOT_LOGIN",
		"DIFFPILOT_REVIEW_MAX_TURNS",
		"DIFFPILOT_REVIEW_LOG_DIR",
	}
	for _, v := range optionalVars {
		if val := os.Getenv(v); val != "" {
			result.Present[v] = val
		}
	}

	if os.Getenv("DIFFPILOT_REVIEW_MAX_TURNS") == "0" {
		result.Warnings = append(result.Warnings,
			"review.max_turns is 0: the review loop runs without a turn budget")
	}

	return result
}

func runEnvCheck(c *cli.Context) error {
	result := CheckRequiredConfig()

	if len(result.Missing) > 0 {
		fmt.Println("Missing required variables:")
		for _, v := range result.Missing {
			fmt.Printf("   - %s\n", v)
		}
		fmt.Println("")
	}

	if len(result.Present) > 0 {
		fmt.Println("Configured variables:")
		keys := make([]string, 0, len(result.Present))
		for k := range result.Present {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("   - %s = %s\n", k, result.Present[k])
		}
		fmt.Println("")
	}

	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	if len(result.Missing) == 0 {
		fmt.Println("All required configuration is present")
		return nil
	}
	return fmt.Errorf("%d required variable(s) missing", len(result.Missing))
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}
