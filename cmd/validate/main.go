// Command validate provides a small CLI that validates relay configuration
// YAML files. It checks:
//   - YAML structure and field types
//   - Listener port range
//   - Hub settings (default room, buffer sizes, deadlines)
//   - Live-source settings (endpoint template, backoff bounds)
//
// Beyond the hard errors the loader enforces, it reports advisory warnings
// for settings that parse but are likely mistakes.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nglmercer/tiktok-apirest/config"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateFile loads and validates a single configuration YAML file.
func validateFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	cfg, err := config.Load(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Errors = append(result.Errors, advisories(cfg)...)

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Port: %d", cfg.Server.Port))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Default room: %s", cfg.Hub.DefaultRoom))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Send buffer: %d frames", cfg.Hub.SendBuffer))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Deadlines: write %v, pong %v", cfg.Hub.WriteWait, cfg.Hub.PongWait))
	if cfg.Live.Enabled {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Live source: %s (backoff %v..%v)",
			cfg.Live.Endpoint, cfg.Live.BackoffMin, cfg.Live.BackoffMax))
	} else {
		result.Errors = append(result.Errors, "✓ Live source: disabled")
	}

	return result
}

// advisories reports settings that load fine but look like mistakes.
func advisories(cfg *config.Config) []string {
	var notes []string

	if cfg.Live.Enabled && !strings.Contains(cfg.Live.Endpoint, "%s") {
		notes = append(notes, "⚠ live.endpoint has no %s placeholder, every username hits the same URL")
	}
	if cfg.Hub.PongWait <= cfg.Hub.WriteWait {
		notes = append(notes, fmt.Sprintf("⚠ hub.pong_wait (%v) should exceed hub.write_wait (%v)",
			cfg.Hub.PongWait, cfg.Hub.WriteWait))
	}
	if cfg.Hub.SendBuffer < 16 {
		notes = append(notes, fmt.Sprintf("⚠ hub.send_buffer of %d drops frames under modest bursts", cfg.Hub.SendBuffer))
	}
	if cfg.Hub.MaxMessageSize < 512 {
		notes = append(notes, fmt.Sprintf("⚠ hub.max_message_size of %d rejects ordinary chat payloads", cfg.Hub.MaxMessageSize))
	}

	return notes
}

// main validates the YAML files given as arguments (default config.yaml),
// printing a concise report and exiting with non-zero status if any are
// invalid.
func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		files = []string{"config.yaml"}
	}

	allValid := true
	for _, file := range files {
		result := validateFile(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations are invalid")
		os.Exit(1)
	}
}
