package commands

import (
	"fmt"

	"github.com/benvon/smart-planner/internal/config"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewReclassifyCmd creates the reclassify command
func NewReclassifyCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Queue reclassification of a user's pending and defaulted tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserFlag(user)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.RequireQueue(); err != nil {
				return err
			}

			jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zap.NewNop())
			if err != nil {
				return err
			}
			defer func() {
				_ = jobQueue.Close()
			}()

			job := queue.NewJob(queue.JobTypeReclassifyUser, userID, nil)
			if err := jobQueue.Enqueue(cmd.Context(), job); err != nil {
				return fmt.Errorf("failed to enqueue job: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Queued job %s\n", job.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")

	return cmd
}
