package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raphaelgruber/chronicle-go/internal/bootstrap"
	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/raphaelgruber/chronicle-go/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var (
	previewHintsFile string
	previewFollow    bool

	candidatesType     string
	candidatesAll      bool
	candidatesEvidence bool
	candidatesOffset   int
	candidatesLimit    int

	commitForceSkip bool
	commitBy        string
	commitMessage   string
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Bootstrap a timeline from prose",
	Long: `Bootstrap extracts timeline candidates from prose about historical
thinkers and walks them through review and commit.

Examples:
  chronicle bootstrap preview enlightenment.txt --hints hints.yaml
  chronicle bootstrap status <session-id>
  chronicle bootstrap candidates <session-id> --type thinker
  chronicle bootstrap overlay <session-id> overlay.json
  chronicle bootstrap commit <session-id>`,
}

var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Extract candidates from a text file (use - for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show a session's status, preview, and telemetry",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates <session-id>",
	Short: "List a session's candidates",
	Args:  cobra.ExactArgs(1),
	RunE:  runCandidates,
}

var validateCmd = &cobra.Command{
	Use:   "validate <session-id>",
	Short: "Show diagnostics for a session's current view",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var overlayCmd = &cobra.Command{
	Use:   "overlay <session-id> <overlay.json>",
	Short: "Apply review edits and re-validate",
	Long: `Apply a JSON overlay of review edits to a session. The overlay is stored
alongside the snapshot and applied at validation and commit time; the
extracted snapshot itself is never modified.`,
	Args: cobra.ExactArgs(2),
	RunE: runOverlay,
}

var commitCmd = &cobra.Command{
	Use:   "commit <session-id>",
	Short: "Commit a reviewed session to the canonical store",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommit,
}

var auditCmd = &cobra.Command{
	Use:   "audit <session-id>",
	Short: "Show the commit audit for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

func init() {
	previewCmd.Flags().StringVar(&previewHintsFile, "hints", "", "YAML file with timeline name/year hints")
	previewCmd.Flags().BoolVar(&previewFollow, "follow", false, "run in the background and follow progress")

	candidatesCmd.Flags().StringVar(&candidatesType, "type", "", "filter by entity type (thinker, connection, event, publication, quote)")
	candidatesCmd.Flags().BoolVar(&candidatesAll, "all", false, "include excluded candidates")
	candidatesCmd.Flags().BoolVar(&candidatesEvidence, "evidence", false, "show evidence excerpts")
	candidatesCmd.Flags().IntVar(&candidatesOffset, "offset", 0, "pagination offset")
	candidatesCmd.Flags().IntVar(&candidatesLimit, "limit", 50, "pagination limit")

	commitCmd.Flags().BoolVar(&commitForceSkip, "force-skip-invalid", false, "skip blocked candidates and their dependents instead of refusing")
	commitCmd.Flags().StringVar(&commitBy, "by", "", "committer name recorded in the audit")
	commitCmd.Flags().StringVar(&commitMessage, "message", "", "commit message recorded in the audit")

	bootstrapCmd.AddCommand(previewCmd)
	bootstrapCmd.AddCommand(statusCmd)
	bootstrapCmd.AddCommand(candidatesCmd)
	bootstrapCmd.AddCommand(validateCmd)
	bootstrapCmd.AddCommand(overlayCmd)
	bootstrapCmd.AddCommand(commitCmd)
	bootstrapCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(bootstrapCmd)
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func loadHints(path string) (*models.TimelineHints, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hints: %w", err)
	}
	var hints models.TimelineHints
	if err := yaml.Unmarshal(data, &hints); err != nil {
		return nil, fmt.Errorf("parse hints: %w", err)
	}
	return &hints, nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	content, err := readSource(args[0])
	if err != nil {
		return err
	}
	hints, err := loadHints(previewHintsFile)
	if err != nil {
		return err
	}

	s, err := getService(ctx)
	if err != nil {
		return err
	}

	if previewFollow {
		handle, err := s.StartPreview(ctx, service.PreviewRequest{
			Content:    content,
			Hints:      hints,
			Background: true,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Started preview job %s (session %s)\n", handle.JobID, handle.SessionID)

		if term.IsTerminal(int(os.Stdout.Fd())) {
			if err := runSessionProgress(s, handle.SessionID); err != nil {
				return err
			}
		} else if err := pollSession(ctx, s, handle.SessionID); err != nil {
			return err
		}

		session, err := s.GetSession(ctx, handle.SessionID)
		if err != nil {
			return err
		}
		printSession(session)
		return nil
	}

	handle, err := s.StartPreview(ctx, service.PreviewRequest{Content: content, Hints: hints})
	if err != nil {
		return err
	}
	fmt.Printf("Session: %s (job %s)\n\n", handle.SessionID, handle.JobID)
	printSession(handle.Session)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := getService(ctx)
	if err != nil {
		return err
	}
	session, err := s.GetSession(ctx, args[0])
	if err != nil {
		return err
	}
	printSession(session)
	return nil
}

func runCandidates(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := getService(ctx)
	if err != nil {
		return err
	}

	page, err := s.ListCandidates(ctx, args[0], service.ListOptions{
		EntityType:      models.EntityType(candidatesType),
		IncludeExcluded: candidatesAll,
		WithEvidence:    candidatesEvidence,
		Offset:          candidatesOffset,
		Limit:           candidatesLimit,
	})
	if err != nil {
		return err
	}

	if len(page.Candidates) == 0 {
		fmt.Println("No candidates found")
		return nil
	}

	fmt.Printf("%d candidates (showing %d-%d)\n\n", page.Total, page.Offset+1, page.Offset+len(page.Candidates))
	for _, c := range page.Candidates {
		printCandidate(c)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := getService(ctx)
	if err != nil {
		return err
	}
	diags, err := s.ValidateSession(ctx, args[0])
	if err != nil {
		return err
	}
	printDiagnostics(diags.Blocking, diags.NonBlocking)
	return nil
}

func runOverlay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := getService(ctx)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read overlay: %w", err)
	}
	var overlay models.ValidationOverlay
	if err := json.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse overlay: %w", err)
	}

	diags, err := s.ApplyValidationOverlay(ctx, args[0], &overlay)
	if err != nil {
		return err
	}
	fmt.Printf("Overlay applied: %d timeline edits, %d candidate edits\n\n",
		boolToInt(overlay.Timeline != nil), len(overlay.Candidates))
	printDiagnostics(diags.Blocking, diags.NonBlocking)
	return nil
}

func runCommit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := getService(ctx)
	if err != nil {
		return err
	}

	result, err := s.Commit(ctx, args[0], service.CommitOptions{
		ForceSkipInvalid: commitForceSkip,
		CommittedBy:      commitBy,
		Message:          commitMessage,
	})
	if err != nil {
		return err
	}

	if result.AlreadyCommitted {
		fmt.Println("Session was already committed; showing the stored audit.")
		fmt.Println()
	}
	printAudit(result.Audit)
	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := getService(ctx)
	if err != nil {
		return err
	}
	audit, err := s.GetAudit(ctx, args[0])
	if err != nil {
		return err
	}
	if audit == nil {
		fmt.Println("No commit audit for this session")
		return nil
	}
	printAudit(audit)
	return nil
}

func printSession(session *models.BootstrapSession) {
	fmt.Printf("Session: %s\n", models.MustRecordIDString(session.ID))
	fmt.Printf("  Status: %s\n", session.Status)
	fmt.Printf("  Job: %s\n", session.JobID)
	fmt.Printf("  Expires: %s\n", session.ExpiresAt.Format("2006-01-02 15:04"))
	if session.Error != nil {
		fmt.Printf("  Error: %s\n", *session.Error)
	}
	if session.CommittedTimelineID != nil {
		fmt.Printf("  Committed timeline: %s\n", *session.CommittedTimelineID)
	}

	if session.Preview != nil {
		p := session.Preview
		fmt.Printf("\nTimeline: %s\n", p.TimelineName)
		if p.StartYear != nil && p.EndYear != nil {
			fmt.Printf("  Range: %d - %d\n", *p.StartYear, *p.EndYear)
		}
		if len(p.Counts) > 0 {
			fmt.Println("  Candidates (included/total):")
			for _, entityType := range []string{"thinker", "connection", "event", "publication", "quote"} {
				if p.Counts[entityType] == 0 {
					continue
				}
				fmt.Printf("    %-12s %d/%d\n", entityType, p.IncludedCounts[entityType], p.Counts[entityType])
			}
		}
		for _, w := range p.Warnings {
			fmt.Printf("  Warning: %s\n", w)
		}
	}

	if session.Telemetry != nil {
		t := session.Telemetry
		fmt.Printf("\nExtraction: %s mode, %d chunks, %d model calls, %d tokens\n",
			t.ExtractionMode, t.ChunkCount, t.ModelCalls, t.TokensUsed)
		if t.Truncated {
			fmt.Println("  Input was truncated at the chunk limit")
		}
		if t.Partial {
			fmt.Println("  Extraction stopped early at the token budget")
		}
		if t.SalvageRan {
			fmt.Printf("  Relation salvage added %d connections\n", t.SalvageAdded)
		}
		if t.YearsEnriched > 0 {
			fmt.Printf("  Years enriched for %d thinkers\n", t.YearsEnriched)
		}
	}
}

func printCandidate(c models.Candidate) {
	included := " "
	if c.Include {
		included = "+"
	}
	fmt.Printf("[%s] %-11s %.2f  %s\n", included, c.EntityType, c.Confidence, candidateLabel(c))
	if c.EntityType == models.EntityThinker && c.MatchStatus != "" {
		fmt.Printf("      match: %s", c.MatchStatus)
		if c.MatchedThinkerID != nil {
			fmt.Printf(" -> %s", *c.MatchedThinkerID)
		}
		if len(c.MatchReasons) > 0 {
			fmt.Printf(" (%s)", strings.Join(c.MatchReasons, "; "))
		}
		fmt.Println()
	}
	for _, span := range c.Evidence {
		fmt.Printf("      %q\n", span.Excerpt)
	}
}

func candidateLabel(c models.Candidate) string {
	switch c.EntityType {
	case models.EntityThinker:
		label := c.Thinker.Name
		if c.Thinker.BirthYear != nil || c.Thinker.DeathYear != nil {
			label += fmt.Sprintf(" (%s-%s)", yearOrBlank(c.Thinker.BirthYear), yearOrBlank(c.Thinker.DeathYear))
		}
		return label
	case models.EntityConnection:
		return fmt.Sprintf("%s -[%s]-> %s", c.Connection.FromName, c.Connection.RelType, c.Connection.ToName)
	case models.EntityEvent:
		if c.Event.Year != nil {
			return fmt.Sprintf("%s (%d)", c.Event.Name, *c.Event.Year)
		}
		return c.Event.Name
	case models.EntityPublication:
		if c.Publication.Year != nil {
			return fmt.Sprintf("%q by %s (%d)", c.Publication.Title, c.Publication.ThinkerName, *c.Publication.Year)
		}
		return fmt.Sprintf("%q by %s", c.Publication.Title, c.Publication.ThinkerName)
	case models.EntityQuote:
		return fmt.Sprintf("%s: %q", c.Quote.ThinkerName, c.Quote.Text)
	}
	return c.ID
}

func yearOrBlank(y *int) string {
	if y == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *y)
}

func printDiagnostics(blocking, nonBlocking []bootstrap.Diagnostic) {
	if len(blocking) == 0 && len(nonBlocking) == 0 {
		fmt.Println("No diagnostics; the session is ready to commit.")
		return
	}
	if len(blocking) > 0 {
		fmt.Printf("Blocking (%d):\n", len(blocking))
		for _, d := range blocking {
			printDiag(d)
		}
	}
	if len(nonBlocking) > 0 {
		fmt.Printf("Warnings (%d):\n", len(nonBlocking))
		for _, d := range nonBlocking {
			printDiag(d)
		}
	}
}

func printDiag(d bootstrap.Diagnostic) {
	if d.CandidateID != "" {
		fmt.Printf("  [%s] %s (candidate %s)\n", d.Code, d.Message, d.CandidateID)
		return
	}
	fmt.Printf("  [%s] %s\n", d.Code, d.Message)
}

func printAudit(audit *models.CommitAudit) {
	fmt.Printf("Commit audit: %s\n", models.MustRecordIDString(audit.ID))
	fmt.Printf("  Session: %s\n", audit.SessionID)
	fmt.Printf("  Timeline: %s\n", audit.TimelineID)
	if audit.CommittedBy != "" {
		fmt.Printf("  By: %s\n", audit.CommittedBy)
	}
	if audit.Message != "" {
		fmt.Printf("  Message: %s\n", audit.Message)
	}
	if !audit.Created.IsZero() {
		fmt.Printf("  At: %s\n", audit.Created.Format("2006-01-02 15:04:05"))
	}

	fmt.Println("\nCreated:")
	for _, entityType := range []string{"timeline", "thinker", "connection", "event", "publication", "quote"} {
		if audit.CreatedCounts[entityType] == 0 {
			continue
		}
		fmt.Printf("  %-12s %d\n", entityType, audit.CreatedCounts[entityType])
	}
	if len(audit.SkippedCounts) > 0 {
		fmt.Println("Skipped:")
		for entityType, n := range audit.SkippedCounts {
			fmt.Printf("  %-12s %d\n", entityType, n)
		}
	}
	for _, w := range audit.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
