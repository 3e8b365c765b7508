package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/spf13/cobra"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline <timeline-id>",
	Short: "Show a committed timeline and its thinkers",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimeline,
}

func init() {
	rootCmd.AddCommand(timelineCmd)
}

func runTimeline(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	timeline, err := dbClient.GetTimeline(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get timeline: %w", err)
	}
	if timeline == nil {
		return fmt.Errorf("timeline not found: %s", args[0])
	}

	fmt.Printf("Timeline: %s\n", timeline.Name)
	fmt.Printf("  ID: %s\n", models.MustRecordIDString(timeline.ID))
	if timeline.Description != nil {
		fmt.Printf("  %s\n", *timeline.Description)
	}
	if timeline.StartYear != nil && timeline.EndYear != nil {
		fmt.Printf("  Range: %d - %d\n", *timeline.StartYear, *timeline.EndYear)
	}

	thinkers, err := dbClient.ListTimelineThinkers(ctx, args[0])
	if err != nil {
		return fmt.Errorf("list thinkers: %w", err)
	}
	if len(thinkers) == 0 {
		fmt.Println("\nNo thinkers attached")
		return nil
	}

	fmt.Printf("\nThinkers (%d):\n", len(thinkers))
	for _, th := range thinkers {
		line := "  " + th.Name
		if th.BirthYear != nil || th.DeathYear != nil {
			line += fmt.Sprintf(" (%s-%s)", yearOrBlank(th.BirthYear), yearOrBlank(th.DeathYear))
		}
		if th.Discipline != nil {
			line += ", " + *th.Discipline
		}
		fmt.Println(line)
	}
	return nil
}
