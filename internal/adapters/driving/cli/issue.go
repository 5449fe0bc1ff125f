package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driving"
)

var issueCmd = &cobra.Command{
	Use:   "issue [coupon-id] [user-id]",
	Short: "Issue a coupon to a user",
	Long: `Issue a coupon to a user without going through the HTTP API.

--mode selects the issue path:
  sync      issue immediately under the coupon's lock (default)
  async-v1  admit under the coupon's lock and queue for the consumer
  async-v2  admit atomically and queue for the consumer

The async modes need a shared queue backend (queue.backend = "redis").`,
	Args: cobra.ExactArgs(2),
	RunE: runIssue,
}

var issueMode string

func init() {
	issueCmd.Flags().StringVar(&issueMode, "mode", "sync", "issue path: sync, async-v1 or async-v2")
	rootCmd.AddCommand(issueCmd)
}

func runIssue(cmd *cobra.Command, args []string) error {
	couponID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: coupon id %q", domain.ErrInvalidInput, args[0])
	}
	userID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: user id %q", domain.ErrInvalidInput, args[1])
	}

	issue, err := issuerFor(issueMode)
	if err != nil {
		return err
	}
	if localQueue && issueMode != "sync" {
		return fmt.Errorf("issue --mode %s: %w", issueMode, errLocalQueue)
	}
	if err := issue.Issue(commandContext(cmd), couponID, userID); err != nil {
		return err
	}

	switch issueMode {
	case "sync":
		cmd.Printf("Issued coupon %d to user %d.\n", couponID, userID)
	default:
		cmd.Printf("Queued coupon %d for user %d.\n", couponID, userID)
	}
	return nil
}

// issuerFor returns the issue path selected by mode.
func issuerFor(mode string) (driving.CouponIssuer, error) {
	var issuer driving.CouponIssuer
	switch mode {
	case "sync":
		issuer = couponIssuer
	case "async-v1":
		issuer = asyncIssuerV1
	case "async-v2":
		issuer = asyncIssuerV2
	default:
		return nil, fmt.Errorf("%w: issue mode %q", domain.ErrInvalidInput, mode)
	}
	if issuer == nil {
		return nil, errors.New("issue service not configured")
	}
	return issuer, nil
}
