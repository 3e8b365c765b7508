package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [job-id]",
	Short: "List or inspect bootstrap jobs",
	Long: `List recent bootstrap jobs or inspect a specific job by ID.

Examples:
  chronicle jobs                # List recent jobs
  chronicle jobs abc123         # Show details for job abc123
  chronicle jobs cancel abc123  # Request cancellation
  chronicle jobs cleanup        # Fail jobs abandoned by a dead worker`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Request cooperative cancellation of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsCancel,
}

var jobsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Mark abandoned running jobs as failed",
	Long: `Mark running jobs as failed. Only use this when no preview is actually
in flight: a bootstrap pass is not resumable, so a running job whose worker
died stays running forever otherwise.`,
	RunE: runJobsCleanup,
}

func init() {
	jobsCmd.AddCommand(jobsCancelCmd)
	jobsCmd.AddCommand(jobsCleanupCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 1 {
		return showJob(ctx, args[0])
	}
	return listJobs(ctx)
}

func listJobs(ctx context.Context) error {
	s, err := getService(ctx)
	if err != nil {
		return err
	}
	jobs, err := s.ListJobs(ctx, 50)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("%-38s %-20s %-12s %s\n", "ID", "TYPE", "STATUS", "STARTED")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, job := range jobs {
		started := job.StartedAt.Format("01-02 15:04:05")
		fmt.Printf("%-38s %-20s %-12s %s\n",
			models.MustRecordIDString(job.ID), job.JobType, job.Status, started)
	}
	return nil
}

func showJob(ctx context.Context, id string) error {
	s, err := getService(ctx)
	if err != nil {
		return err
	}
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("job not found: %s", id)
	}

	fmt.Printf("Job: %s\n", models.MustRecordIDString(job.ID))
	fmt.Printf("  Type: %s\n", job.JobType)
	fmt.Printf("  Status: %s\n", job.Status)
	if job.CancelRequested {
		fmt.Println("  Cancellation requested")
	}
	fmt.Printf("  Started: %s\n", job.StartedAt.Format(time.RFC3339))
	if job.CompletedAt != nil {
		fmt.Printf("  Completed: %s\n", job.CompletedAt.Format(time.RFC3339))
		duration := job.CompletedAt.Sub(job.StartedAt)
		fmt.Printf("  Duration: %s\n", duration.Round(time.Second))
	}

	if job.Error != nil && *job.Error != "" {
		fmt.Printf("  Error: %s\n", *job.Error)
	}

	if len(job.Result) > 0 {
		fmt.Println("\nResult:")
		for key, value := range job.Result {
			fmt.Printf("  %s: %v\n", key, value)
		}
	}
	return nil
}

func runJobsCancel(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := getService(ctx)
	if err != nil {
		return err
	}
	if err := s.CancelJob(ctx, args[0]); err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	fmt.Printf("Cancellation requested for job %s; the worker stops at its next chunk boundary.\n", args[0])
	return nil
}

func runJobsCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := getService(ctx)
	if err != nil {
		return err
	}
	failed, err := s.FailAbandonedJobs(ctx)
	if err != nil {
		return err
	}
	if failed == 0 {
		fmt.Println("No abandoned jobs found")
		return nil
	}
	fmt.Printf("Marked %d abandoned jobs as failed\n", failed)
	return nil
}
