package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/coupon/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the server, queue backend, locks and consumer.

Settings are stored in config.toml inside the configuration directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsQueueCmd = &cobra.Command{
	Use:   "queue [backend]",
	Short: "Select the issue request queue backend",
	Long: `Select where asynchronous issue requests are admitted and queued.

Available backends:
  memory - in process, only when the API and the consumer share a process
  redis  - shared by every API node and the consumer

Without an argument the backends are listed for selection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsQueue,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsQueueCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Printf("  Read timeout: %s\n", settings.Server.ReadTimeout)
	cmd.Printf("  Write timeout: %s\n", settings.Server.WriteTimeout)
	cmd.Println()

	cmd.Println("[Storage]")
	if settings.Storage.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	} else {
		cmd.Printf("  Data dir: (default)\n")
	}
	cmd.Println()

	cmd.Println("[Queue]")
	cmd.Printf("  Backend: %s\n", settings.Queue.Backend.Description())
	if settings.Queue.Backend == domain.QueueBackendRedis {
		cmd.Printf("  Redis: %s db %d\n", settings.Redis.Addr, settings.Redis.DB)
		if settings.Redis.Password != "" {
			cmd.Printf("  Password: %s\n", maskSecret(settings.Redis.Password))
		} else {
			cmd.Printf("  Password: (not set)\n")
		}
	}
	cmd.Println()

	cmd.Println("[Issue]")
	cmd.Printf("  Lock wait: %s\n", settings.Lock.Wait)
	cmd.Printf("  Lock lease: %s\n", settings.Lock.Lease)
	cmd.Printf("  Consumer interval: %s\n", settings.Consumer.Interval)
	cmd.Printf("  Snapshot cache: %d entries, ttl %s\n", settings.Cache.Size, settings.Cache.TTL)
	cmd.Println()

	cmd.Println("[Rate Limit]")
	if settings.RateLimit.RequestsPerSecond > 0 {
		cmd.Printf("  %g requests/s per client, burst %d\n",
			settings.RateLimit.RequestsPerSecond, settings.RateLimit.Burst)
	} else {
		cmd.Printf("  Disabled\n")
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Edit config.toml or run 'coupon settings queue' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsQueue(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var backend domain.QueueBackend
	if len(args) == 1 {
		backend = domain.QueueBackend(strings.ToLower(strings.TrimSpace(args[0])))
		if !backend.IsValid() {
			return fmt.Errorf("%w: queue backend %q", domain.ErrUnsupportedType, args[0])
		}
	} else {
		backends := domain.AllQueueBackends()
		for i, b := range backends {
			cmd.Printf("  %d. %s\n", i+1, b.Description())
		}
		cmd.Print("\nEnter choice [1]: ")
		choice := parseChoice(readLine(bufio.NewReader(cmd.InOrStdin())), len(backends), 1)
		backend = backends[choice-1]
	}

	if err := settingsService.SetQueueBackend(backend); err != nil {
		return fmt.Errorf("failed to set queue backend: %w", err)
	}
	cmd.Printf("Queue backend set to: %s\n", backend.Description())
	return nil
}

// readLine reads a line of input and trims whitespace.
func readLine(reader *bufio.Reader) string {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimSpace(line)
}

// parseChoice parses a 1-based menu choice, falling back to defaultVal.
func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > maxVal {
		return defaultVal
	}
	return choice
}

// maskSecret masks a secret for display, showing only the ends.
func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
