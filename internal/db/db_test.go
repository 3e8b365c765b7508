// Package db provides integration tests for SurrealDB operations.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

func newID() string {
	return uuid.New().String()
}

func intPtr(v int) *int { return &v }

// =============================================================================
// JOB TESTS
// =============================================================================

func TestCreateAndGetJob(t *testing.T) {
	ctx := context.Background()

	id := newID()
	job, err := testDB.CreateJob(ctx, id, models.JobTypeBootstrap, map[string]any{"source": "inline"})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if job.Status != models.JobStatusQueued {
		t.Errorf("Expected status queued, got %q", job.Status)
	}
	if job.JobType != models.JobTypeBootstrap {
		t.Errorf("Expected job type %q, got %q", models.JobTypeBootstrap, job.JobType)
	}
	if job.CancelRequested {
		t.Error("New job should not have cancel_requested set")
	}

	fetched, err := testDB.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("GetJob returned nil")
	}

	missing, err := testDB.GetJob(ctx, "does-not-exist")
	if err != nil {
		t.Errorf("GetJob with unknown ID should not error: %v", err)
	}
	if missing != nil {
		t.Error("GetJob with unknown ID should return nil")
	}
}

func TestJobLifecycle(t *testing.T) {
	ctx := context.Background()

	id := newID()
	if _, err := testDB.CreateJob(ctx, id, models.JobTypeBootstrap, nil); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	if err := testDB.UpdateJobStatus(ctx, id, models.JobStatusRunning); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}

	if err := testDB.CompleteJob(ctx, id, map[string]any{"session_id": "abc"}); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}

	job, err := testDB.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Status != models.JobStatusCompleted {
		t.Errorf("Expected status completed, got %q", job.Status)
	}
	if job.CompletedAt == nil {
		t.Error("Completed job should have completed_at set")
	}
}

func TestRequestJobCancel(t *testing.T) {
	ctx := context.Background()

	// Cancel a running job
	id := newID()
	if _, err := testDB.CreateJob(ctx, id, models.JobTypeBootstrap, nil); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := testDB.UpdateJobStatus(ctx, id, models.JobStatusRunning); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}
	if err := testDB.RequestJobCancel(ctx, id); err != nil {
		t.Fatalf("RequestJobCancel failed: %v", err)
	}

	flagged, err := testDB.JobCancelRequested(ctx, id)
	if err != nil {
		t.Fatalf("JobCancelRequested failed: %v", err)
	}
	if !flagged {
		t.Error("Expected cancel_requested to be set")
	}

	if err := testDB.MarkJobCancelled(ctx, id); err != nil {
		t.Fatalf("MarkJobCancelled failed: %v", err)
	}

	// Cancelling a terminal job must report a status conflict
	err = testDB.RequestJobCancel(ctx, id)
	if err == nil {
		t.Fatal("RequestJobCancel on cancelled job should fail")
	}
	if !errors.Is(err, ErrStatusConflict) {
		t.Errorf("Expected ErrStatusConflict, got %v", err)
	}
}

func TestSourceArtifact(t *testing.T) {
	ctx := context.Background()

	jobID := newID()
	if _, err := testDB.CreateJob(ctx, jobID, models.JobTypeBootstrap, nil); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	content := "Immanuel Kant (1724-1804) was a German philosopher."
	artifact, err := testDB.CreateSourceArtifact(ctx, newID(), jobID, content, 13)
	if err != nil {
		t.Fatalf("CreateSourceArtifact failed: %v", err)
	}
	if artifact.Length != len(content) {
		t.Errorf("Expected length %d, got %d", len(content), artifact.Length)
	}

	fetched, err := testDB.GetSourceArtifactByJob(ctx, jobID)
	if err != nil {
		t.Fatalf("GetSourceArtifactByJob failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("GetSourceArtifactByJob returned nil")
	}
	if fetched.Content != content {
		t.Error("Artifact content mismatch")
	}
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestCreateAndGetSession(t *testing.T) {
	ctx := context.Background()

	id := newID()
	hints := &models.TimelineHints{Name: "Enlightenment Thinkers"}
	expires := time.Now().Add(24 * time.Hour)

	session, err := testDB.CreateSession(ctx, id, newID(), hints, expires)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if session.Status != models.SessionQueued {
		t.Errorf("Expected status queued, got %q", session.Status)
	}
	if session.Hints == nil || session.Hints.Name != "Enlightenment Thinkers" {
		t.Error("Hints not persisted")
	}

	fetched, err := testDB.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("GetSession returned nil")
	}
}

func TestTransitionSessionStatus(t *testing.T) {
	ctx := context.Background()

	id := newID()
	if _, err := testDB.CreateSession(ctx, id, newID(), nil, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := testDB.ReplaceSessionSnapshot(ctx, id, nil, nil, nil, models.SessionReadyForReview); err != nil {
		t.Fatalf("ReplaceSessionSnapshot failed: %v", err)
	}

	// First transition wins
	status, won, err := testDB.TransitionSessionStatus(ctx, id, models.ReadyStatuses, models.SessionCommitting)
	if err != nil {
		t.Fatalf("TransitionSessionStatus failed: %v", err)
	}
	if !won {
		t.Fatal("First transition should win")
	}
	if status != models.SessionCommitting {
		t.Errorf("Expected committing, got %q", status)
	}

	// Second transition loses and sees the winner's status
	status, won, err = testDB.TransitionSessionStatus(ctx, id, models.ReadyStatuses, models.SessionCommitting)
	if err != nil {
		t.Fatalf("Second TransitionSessionStatus failed: %v", err)
	}
	if won {
		t.Error("Second transition should lose")
	}
	if status != models.SessionCommitting {
		t.Errorf("Loser should observe committing, got %q", status)
	}
}

func TestReplaceSessionSnapshot(t *testing.T) {
	ctx := context.Background()

	id := newID()
	if _, err := testDB.CreateSession(ctx, id, newID(), nil, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	candidates := []models.Candidate{
		{
			ID:         "cand-1",
			EntityType: models.EntityThinker,
			Confidence: 0.9,
			Include:    true,
			Thinker:    &models.ThinkerFields{Name: "Immanuel Kant", BirthYear: intPtr(1724)},
			Evidence: []models.EvidenceSpan{
				{ChunkIndex: 0, CharStart: 0, CharEnd: 13, Excerpt: "Immanuel Kant"},
			},
			MatchStatus: models.MatchCreateNew,
		},
	}
	preview := &models.SessionPreview{
		TimelineName:   "Test Timeline",
		Counts:         map[string]int{"thinker": 1},
		IncludedCounts: map[string]int{"thinker": 1},
	}
	telemetry := &models.SessionTelemetry{ChunkCount: 1, ExtractionMode: "heuristic"}

	if err := testDB.ReplaceSessionSnapshot(ctx, id, candidates, preview, telemetry, models.SessionReadyForReview); err != nil {
		t.Fatalf("ReplaceSessionSnapshot failed: %v", err)
	}

	session, err := testDB.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.Status != models.SessionReadyForReview {
		t.Errorf("Expected ready_for_review, got %q", session.Status)
	}
	if len(session.Candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(session.Candidates))
	}
	got := session.Candidates[0]
	if got.Thinker == nil || got.Thinker.Name != "Immanuel Kant" {
		t.Error("Candidate payload not round-tripped")
	}
	if len(got.Evidence) != 1 || got.Evidence[0].Excerpt != "Immanuel Kant" {
		t.Error("Evidence spans not round-tripped")
	}
	if session.Preview == nil || session.Preview.Counts["thinker"] != 1 {
		t.Error("Preview not round-tripped")
	}
}

func TestSetSessionOverlay(t *testing.T) {
	ctx := context.Background()

	id := newID()
	if _, err := testDB.CreateSession(ctx, id, newID(), nil, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	include := false
	overlay := &models.ValidationOverlay{
		Candidates: []models.CandidatePatch{{CandidateID: "cand-1", Include: &include}},
	}
	if err := testDB.SetSessionOverlay(ctx, id, overlay); err != nil {
		t.Fatalf("SetSessionOverlay failed: %v", err)
	}

	session, err := testDB.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.Overlay == nil || len(session.Overlay.Candidates) != 1 {
		t.Fatal("Overlay not persisted")
	}
	if session.Overlay.Candidates[0].Include == nil || *session.Overlay.Candidates[0].Include {
		t.Error("Overlay include flag not round-tripped")
	}
}

// =============================================================================
// CANONICAL REGISTRY TESTS
// =============================================================================

func TestCreateAndListThinkers(t *testing.T) {
	ctx := context.Background()

	id := newID()
	created, err := testDB.CreateThinker(ctx, id, models.ThinkerInput{
		Name:      "  René Descartes ",
		BirthYear: intPtr(1596),
		DeathYear: intPtr(1650),
	})
	if err != nil {
		t.Fatalf("CreateThinker failed: %v", err)
	}
	if created.Name != "  René Descartes " {
		t.Errorf("Name should be stored verbatim, got %q", created.Name)
	}

	// norm_name is computed lowercase + whitespace-collapsed by the schema
	byName, err := testDB.ListThinkersByName(ctx, "rené descartes")
	if err != nil {
		t.Fatalf("ListThinkersByName failed: %v", err)
	}
	if len(byName) != 1 {
		t.Fatalf("Expected 1 thinker by normalized name, got %d", len(byName))
	}

	// Doubled interior spaces collapse the same way the matcher normalizes
	spacedID := newID()
	if _, err := testDB.CreateThinker(ctx, spacedID, models.ThinkerInput{Name: "Gottfried   Wilhelm  Leibniz"}); err != nil {
		t.Fatalf("CreateThinker failed: %v", err)
	}
	collapsed, err := testDB.ListThinkersByName(ctx, "gottfried wilhelm leibniz")
	if err != nil {
		t.Fatalf("ListThinkersByName failed: %v", err)
	}
	if len(collapsed) != 1 {
		t.Fatalf("Expected 1 thinker for whitespace-collapsed name, got %d", len(collapsed))
	}

	all, err := testDB.ListThinkers(ctx, 100)
	if err != nil {
		t.Fatalf("ListThinkers failed: %v", err)
	}
	found := false
	for _, th := range all {
		if models.MustRecordIDString(th.ID) == id {
			found = true
		}
	}
	if !found {
		t.Error("ListThinkers should include created thinker")
	}
}

func TestFindConnectionByPair(t *testing.T) {
	ctx := context.Background()

	fromID := newID()
	toID := newID()
	if _, err := testDB.CreateThinker(ctx, fromID, models.ThinkerInput{Name: "Pair From"}); err != nil {
		t.Fatalf("CreateThinker failed: %v", err)
	}
	if _, err := testDB.CreateThinker(ctx, toID, models.ThinkerInput{Name: "Pair To"}); err != nil {
		t.Fatalf("CreateThinker failed: %v", err)
	}

	_, err := testDB.Query(ctx, `
		CREATE type::record("connection", $id) CONTENT $content
	`, map[string]any{
		"id": newID(),
		"content": models.ConnectionInput{
			FromID:  fromID,
			ToID:    toID,
			RelType: models.RelationInfluenced,
		},
	})
	if err != nil {
		t.Fatalf("Failed to create connection: %v", err)
	}

	conn, err := testDB.FindConnectionByPair(ctx, fromID, toID)
	if err != nil {
		t.Fatalf("FindConnectionByPair failed: %v", err)
	}
	if conn == nil {
		t.Fatal("Expected connection for (from, to)")
	}
	if conn.RelType != models.RelationInfluenced {
		t.Errorf("Expected rel_type influenced, got %q", conn.RelType)
	}

	// Reverse direction is a different pair
	reverse, err := testDB.FindConnectionByPair(ctx, toID, fromID)
	if err != nil {
		t.Fatalf("FindConnectionByPair reverse failed: %v", err)
	}
	if reverse != nil {
		t.Error("Reverse pair should not match")
	}
}

func TestConnectionPairUniqueness(t *testing.T) {
	ctx := context.Background()

	fromID := newID()
	toID := newID()
	input := models.ConnectionInput{FromID: fromID, ToID: toID, RelType: models.RelationCritiqued}

	if _, err := testDB.Query(ctx, `CREATE type::record("connection", $id) CONTENT $content`,
		map[string]any{"id": newID(), "content": input}); err != nil {
		t.Fatalf("First connection create failed: %v", err)
	}

	_, err := testDB.Query(ctx, `CREATE type::record("connection", $id) CONTENT $content`,
		map[string]any{"id": newID(), "content": input})
	if err == nil {
		t.Fatal("Duplicate (from, to) pair should violate the unique index")
	}
	if !errors.Is(wrapQueryError(err), ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}
}

// =============================================================================
// COMMIT PLAN TESTS
// =============================================================================

func TestApplyCommitPlan(t *testing.T) {
	ctx := context.Background()

	sessionID := newID()
	if _, err := testDB.CreateSession(ctx, sessionID, newID(), nil, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// Pre-existing unclaimed thinker to attach
	attachID := newID()
	if _, err := testDB.CreateThinker(ctx, attachID, models.ThinkerInput{Name: "Attach Target"}); err != nil {
		t.Fatalf("CreateThinker failed: %v", err)
	}

	timelineID := newID()
	newThinkerID := newID()
	connID := newID()
	eventID := newID()
	pubID := newID()
	quoteID := newID()

	plan := &models.CommitPlan{
		SessionID:  sessionID,
		TimelineID: timelineID,
		Timeline:   models.TimelineInput{Name: "Plan Test Timeline", StartYear: intPtr(1600)},
		Thinkers: []models.PlannedThinker{
			{
				CandidateID: "cand-a",
				Action:      models.ThinkerActionCreate,
				NewID:       newThinkerID,
				Input:       models.ThinkerInput{TimelineID: &timelineID, Name: "New Thinker", BirthYear: intPtr(1632)},
			},
			{
				CandidateID: "cand-b",
				Action:      models.ThinkerActionAttach,
				ExistingID:  attachID,
			},
		},
		Connections: []models.PlannedConnection{
			{
				CandidateID: "cand-c",
				NewID:       connID,
				Input: models.ConnectionInput{
					TimelineID: &timelineID,
					FromID:     newThinkerID,
					ToID:       attachID,
					RelType:    models.RelationInfluenced,
				},
			},
		},
		Events: []models.PlannedEvent{
			{
				CandidateID: "cand-d",
				NewID:       eventID,
				Input:       models.EventInput{TimelineID: &timelineID, Name: "Treatise published", Year: 1670},
			},
		},
		Publications: []models.PlannedPublication{
			{
				CandidateID: "cand-e",
				NewID:       pubID,
				Input:       models.PublicationInput{ThinkerID: newThinkerID, Title: "Ethics", Year: intPtr(1677)},
			},
		},
		Quotes: []models.PlannedQuote{
			{
				CandidateID: "cand-f",
				NewID:       quoteID,
				Input:       models.QuoteInput{ThinkerID: newThinkerID, Text: "All things excellent are as difficult as they are rare."},
			},
		},
	}

	auditID := newID()
	audit := models.CommitAuditInput{
		SessionID:     sessionID,
		TimelineID:    timelineID,
		CreatedCounts: map[string]int{"thinker": 1, "connection": 1, "event": 1, "publication": 1, "quote": 1},
		SkippedCounts: map[string]int{},
		IDMappings:    map[string]string{"cand-a": newThinkerID, "cand-b": attachID},
	}

	if err := testDB.ApplyCommitPlan(ctx, plan, audit, auditID); err != nil {
		t.Fatalf("ApplyCommitPlan failed: %v", err)
	}

	// Timeline created
	timeline, err := testDB.GetTimeline(ctx, timelineID)
	if err != nil {
		t.Fatalf("GetTimeline failed: %v", err)
	}
	if timeline == nil {
		t.Fatal("Timeline should exist after commit")
	}

	// New thinker created and scoped to the timeline
	created, err := testDB.GetThinker(ctx, newThinkerID)
	if err != nil {
		t.Fatalf("GetThinker failed: %v", err)
	}
	if created == nil {
		t.Fatal("Created thinker should exist")
	}
	if created.TimelineID == nil || *created.TimelineID != timelineID {
		t.Error("Created thinker should carry the new timeline id")
	}

	// Attached thinker now claimed by the timeline
	attached, err := testDB.GetThinker(ctx, attachID)
	if err != nil {
		t.Fatalf("GetThinker (attached) failed: %v", err)
	}
	if attached.TimelineID == nil || *attached.TimelineID != timelineID {
		t.Error("Attached thinker should carry the new timeline id")
	}

	// Connection created on the resolved pair
	conn, err := testDB.FindConnectionByPair(ctx, newThinkerID, attachID)
	if err != nil {
		t.Fatalf("FindConnectionByPair failed: %v", err)
	}
	if conn == nil {
		t.Fatal("Connection should exist after commit")
	}

	// Session marked committed inside the same transaction
	session, err := testDB.GetSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.Status != models.SessionCommitted {
		t.Errorf("Expected committed, got %q", session.Status)
	}
	if session.CommittedTimelineID == nil || *session.CommittedTimelineID != timelineID {
		t.Error("Session should record the committed timeline id")
	}

	// Audit written and retrievable
	latest, err := testDB.GetLatestAuditBySession(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetLatestAuditBySession failed: %v", err)
	}
	if latest == nil {
		t.Fatal("Audit should exist after commit")
	}
	if latest.CreatedCounts["thinker"] != 1 {
		t.Errorf("Expected created thinker count 1, got %d", latest.CreatedCounts["thinker"])
	}
	if latest.IDMappings["cand-a"] != newThinkerID {
		t.Error("Audit id mappings not round-tripped")
	}
}

func TestApplyCommitPlanRollsBackOnConflict(t *testing.T) {
	ctx := context.Background()

	sessionID := newID()
	if _, err := testDB.CreateSession(ctx, sessionID, newID(), nil, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	fromID := newID()
	toID := newID()
	if _, err := testDB.CreateThinker(ctx, fromID, models.ThinkerInput{Name: "Conflict From"}); err != nil {
		t.Fatalf("CreateThinker failed: %v", err)
	}
	if _, err := testDB.CreateThinker(ctx, toID, models.ThinkerInput{Name: "Conflict To"}); err != nil {
		t.Fatalf("CreateThinker failed: %v", err)
	}

	// Seed a connection so the plan's insert hits the unique pair index
	if _, err := testDB.Query(ctx, `CREATE type::record("connection", $id) CONTENT $content`,
		map[string]any{"id": newID(), "content": models.ConnectionInput{
			FromID: fromID, ToID: toID, RelType: models.RelationInfluenced,
		}}); err != nil {
		t.Fatalf("Failed to seed connection: %v", err)
	}

	timelineID := newID()
	plan := &models.CommitPlan{
		SessionID:  sessionID,
		TimelineID: timelineID,
		Timeline:   models.TimelineInput{Name: "Rollback Timeline"},
		Connections: []models.PlannedConnection{
			{
				CandidateID: "cand-dup",
				NewID:       newID(),
				Input: models.ConnectionInput{
					TimelineID: &timelineID,
					FromID:     fromID,
					ToID:       toID,
					RelType:    models.RelationCritiqued,
				},
			},
		},
	}

	err := testDB.ApplyCommitPlan(ctx, plan, models.CommitAuditInput{
		SessionID:  sessionID,
		TimelineID: timelineID,
	}, newID())
	if err == nil {
		t.Fatal("ApplyCommitPlan should fail on duplicate pair")
	}

	// Nothing from the failed transaction may persist
	timeline, err := testDB.GetTimeline(ctx, timelineID)
	if err != nil {
		t.Fatalf("GetTimeline failed: %v", err)
	}
	if timeline != nil {
		t.Error("Timeline from failed commit should not persist")
	}

	session, err := testDB.GetSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.Status == models.SessionCommitted {
		t.Error("Session must not be committed after a rolled-back commit")
	}

	audit, err := testDB.GetLatestAuditBySession(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetLatestAuditBySession failed: %v", err)
	}
	if audit != nil {
		t.Error("Audit from failed commit should not persist")
	}
}

// =============================================================================
// AUDIT TESTS
// =============================================================================

func TestListAuditsBySession(t *testing.T) {
	ctx := context.Background()

	sessionID := newID()
	for i := 0; i < 2; i++ {
		_, err := testDB.Query(ctx, `CREATE type::record("commit_audit", $id) CONTENT $content`,
			map[string]any{"id": newID(), "content": models.CommitAuditInput{
				SessionID:     sessionID,
				TimelineID:    newID(),
				CreatedCounts: map[string]int{"thinker": i},
				SkippedCounts: map[string]int{},
				IDMappings:    map[string]string{},
			}})
		if err != nil {
			t.Fatalf("Failed to create audit %d: %v", i, err)
		}
	}

	audits, err := testDB.ListAuditsBySession(ctx, sessionID)
	if err != nil {
		t.Fatalf("ListAuditsBySession failed: %v", err)
	}
	if len(audits) != 2 {
		t.Errorf("Expected 2 audits, got %d", len(audits))
	}
}
