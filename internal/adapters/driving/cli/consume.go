package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/coupon/internal/core/domain"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Fulfil queued issue requests",
	Long: `Drain the issue request queue on the consumer interval until interrupted.

Requests are issued in the order they were admitted. With --once the queue
is drained a single time and the command exits.

Needs a shared queue backend (queue.backend = "redis"). With the memory
backend run 'coupon serve', which consumes in process.`,
	RunE: runConsume,
}

var consumeOnce bool

func init() {
	consumeCmd.Flags().BoolVar(&consumeOnce, "once", false, "drain the queue once and exit")
	rootCmd.AddCommand(consumeCmd)
}

func runConsume(cmd *cobra.Command, _ []string) error {
	if localQueue {
		return fmt.Errorf("consume: %w", errLocalQueue)
	}
	ctx := commandContext(cmd)

	if consumeOnce {
		if issueListener == nil {
			return errors.New("issue listener not configured")
		}
		n, err := issueListener.Consume(ctx)
		cmd.Printf("Processed %d issue requests.\n", n)
		if err != nil {
			return fmt.Errorf("consume stopped: %w", err)
		}
		return nil
	}

	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	if !schedulerConfig.Enabled {
		return errors.New("scheduler is disabled")
	}

	taskCfg := schedulerConfig.GetTaskConfig(domain.TaskIDIssueConsume)
	cmd.Printf("Consuming issue requests every %s. Press Ctrl+C to stop.\n", taskCfg.Interval)
	return ignoreCancel(scheduler.Start(ctx))
}
