package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

func TestScanPIIStoresPendingDetections(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	session := createTestSession(t, store, project.ID, fiveTurns())

	engine := &stubEngine{
		detectPII: func(turns []domain.Turn, hints domain.PiiHints) ([]domain.PiiDetection, error) {
			return []domain.PiiDetection{
				{ID: "d1", TurnIndex: 1, StartOffset: 0, EndOffset: 1, OriginalText: "I", PiiType: "name", ReplacementToken: "[NAME]", Status: domain.DetectionRedacted},
			}, nil
		},
	}
	pipe := New(store, engine)

	detections, err := pipe.ScanPII(context.Background(), session.ID, domain.PiiHints{})
	if err != nil {
		t.Fatalf("ScanPII: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(detections))
	}

	stored, _ := store.GetSession(session.ID)
	if len(stored.AnonymisationLog.Pending) != 1 {
		t.Fatalf("expected pending detections to be stored, got %d", len(stored.AnonymisationLog.Pending))
	}
	if stored.Status != domain.SessionStatusUploaded {
		t.Errorf("scan must not advance status, got %s", stored.Status)
	}
}

func TestScanPIIReplacesPendingWholesale(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	session := createTestSession(t, store, project.ID, fiveTurns())

	calls := 0
	engine := &stubEngine{
		detectPII: func(turns []domain.Turn, hints domain.PiiHints) ([]domain.PiiDetection, error) {
			calls++
			if calls == 1 {
				return []domain.PiiDetection{
					{ID: "old1", TurnIndex: 0, StartOffset: 0, EndOffset: 4, ReplacementToken: "[NAME]", Status: domain.DetectionRedacted},
					{ID: "old2", TurnIndex: 1, StartOffset: 0, EndOffset: 1, ReplacementToken: "[NAME]", Status: domain.DetectionRedacted},
				}, nil
			}
			return []domain.PiiDetection{
				{ID: "new1", TurnIndex: 2, StartOffset: 0, EndOffset: 8, ReplacementToken: "[NAME]", Status: domain.DetectionRedacted},
			}, nil
		},
	}
	pipe := New(store, engine)

	if _, err := pipe.ScanPII(context.Background(), session.ID, domain.PiiHints{}); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if _, err := pipe.ScanPII(context.Background(), session.ID, domain.PiiHints{}); err != nil {
		t.Fatalf("second scan: %v", err)
	}

	stored, _ := store.GetSession(session.ID)
	if len(stored.AnonymisationLog.Pending) != 1 || stored.AnonymisationLog.Pending[0].ID != "new1" {
		t.Fatalf("rescan must replace pending set, got %+v", stored.AnonymisationLog.Pending)
	}
}

func TestScanPIIRejectsNonUploadedSession(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	session := createTestSession(t, store, project.ID, fiveTurns())

	session.Status = domain.SessionStatusAnonymised
	if _, err := store.UpdateSession(session); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	pipe := New(store, &stubEngine{})
	_, err := pipe.ScanPII(context.Background(), session.ID, domain.PiiHints{})

	var stateErr *domain.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
}

func TestScanPIIWrapsEngineFailure(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	session := createTestSession(t, store, project.ID, fiveTurns())

	engine := &stubEngine{
		detectPII: func([]domain.Turn, domain.PiiHints) ([]domain.PiiDetection, error) {
			return nil, errors.New("model timeout")
		},
	}
	pipe := New(store, engine)

	_, err := pipe.ScanPII(context.Background(), session.ID, domain.PiiHints{})
	var engineErr *domain.EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected EngineError, got %v", err)
	}

	stored, _ := store.GetSession(session.ID)
	if len(stored.AnonymisationLog.Pending) != 0 {
		t.Errorf("failed scan must not store detections")
	}
}

func TestAnonymiseAppliesSpansInDescendingOffsetOrder(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	turns := []domain.Turn{
		{Index: 0, Speaker: "P01", Text: "My name is Sarah and I work at Acme"},
	}
	session := createTestSession(t, store, project.ID, turns)
	pipe := New(store, &stubEngine{})

	// Submitted in ascending order on purpose; the commit must still
	// apply the later span first so the earlier offsets stay valid.
	detections := []domain.PiiDetection{
		{ID: "d1", TurnIndex: 0, StartOffset: 11, EndOffset: 16, OriginalText: "Sarah", ReplacementToken: "[NAME]", Status: domain.DetectionRedacted},
		{ID: "d2", TurnIndex: 0, StartOffset: 31, EndOffset: 35, OriginalText: "Acme", ReplacementToken: "[COMPANY]", Status: domain.DetectionRedacted},
	}

	updated, err := pipe.Anonymise(session.ID, detections)
	if err != nil {
		t.Fatalf("Anonymise: %v", err)
	}

	want := "My name is [NAME] and I work at [COMPANY]"
	if got := updated.Transcript[0].Text; got != want {
		t.Errorf("redacted text = %q, want %q", got, want)
	}
	if updated.Status != domain.SessionStatusAnonymised {
		t.Errorf("status = %s, want anonymised", updated.Status)
	}
	if updated.AnonymisationLog.AutoRedacted != 2 {
		t.Errorf("autoRedacted = %d, want 2", updated.AnonymisationLog.AutoRedacted)
	}
}

func TestAnonymiseFailsClosedOnMismatchedSpan(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	turns := []domain.Turn{
		{Index: 0, Speaker: "P01", Text: "My name is Sarah and I work at Acme"},
	}
	session := createTestSession(t, store, project.ID, turns)
	pipe := New(store, &stubEngine{})

	detections := []domain.PiiDetection{
		{ID: "d1", TurnIndex: 0, StartOffset: 11, EndOffset: 16, OriginalText: "Sarah", ReplacementToken: "[NAME]", Status: domain.DetectionRedacted},
		{ID: "d2", TurnIndex: 0, StartOffset: 31, EndOffset: 35, OriginalText: "Initech", ReplacementToken: "[COMPANY]", Status: domain.DetectionRedacted},
	}

	_, err := pipe.Anonymise(session.ID, detections)
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	stored, _ := store.GetSession(session.ID)
	if stored.Status != domain.SessionStatusUploaded {
		t.Errorf("failed commit must not advance status, got %s", stored.Status)
	}
	if stored.Transcript[0].Text != turns[0].Text {
		t.Errorf("failed commit must not touch the transcript")
	}
}

func TestAnonymiseRejectsOverlappingSpans(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	turns := []domain.Turn{
		{Index: 0, Speaker: "P01", Text: "Sarah Connor spoke first"},
	}
	session := createTestSession(t, store, project.ID, turns)
	pipe := New(store, &stubEngine{})

	detections := []domain.PiiDetection{
		{ID: "d1", TurnIndex: 0, StartOffset: 0, EndOffset: 12, OriginalText: "Sarah Connor", ReplacementToken: "[NAME]", Status: domain.DetectionRedacted},
		{ID: "d2", TurnIndex: 0, StartOffset: 6, EndOffset: 12, OriginalText: "Connor", ReplacementToken: "[NAME]", Status: domain.DetectionRedacted},
	}

	_, err := pipe.Anonymise(session.ID, detections)
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for overlapping spans, got %v", err)
	}
}

func TestAnonymiseKeepsSpansMarkedKept(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	turns := []domain.Turn{
		{Index: 0, Speaker: "P01", Text: "I met Sarah in Berlin"},
	}
	session := createTestSession(t, store, project.ID, turns)
	pipe := New(store, &stubEngine{})

	detections := []domain.PiiDetection{
		{ID: "d1", TurnIndex: 0, StartOffset: 6, EndOffset: 11, OriginalText: "Sarah", ReplacementToken: "[NAME]", Status: domain.DetectionRedacted},
		{ID: "d2", TurnIndex: 0, StartOffset: 15, EndOffset: 21, OriginalText: "Berlin", ReplacementToken: "[LOCATION]", Status: domain.DetectionKept},
	}

	updated, err := pipe.Anonymise(session.ID, detections)
	if err != nil {
		t.Fatalf("Anonymise: %v", err)
	}

	want := "I met [NAME] in Berlin"
	if got := updated.Transcript[0].Text; got != want {
		t.Errorf("redacted text = %q, want %q", got, want)
	}
	if updated.AnonymisationLog.ResearcherReviewed != 1 {
		t.Errorf("researcherReviewed = %d, want 1", updated.AnonymisationLog.ResearcherReviewed)
	}
}

func TestAnonymiseDiscardsPendingDetections(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	turns := []domain.Turn{
		{Index: 0, Speaker: "P01", Text: "I met Sarah in Berlin"},
	}
	session := createTestSession(t, store, project.ID, turns)

	engine := &stubEngine{
		detectPII: func([]domain.Turn, domain.PiiHints) ([]domain.PiiDetection, error) {
			return []domain.PiiDetection{
				{ID: "d1", TurnIndex: 0, StartOffset: 6, EndOffset: 11, OriginalText: "Sarah", ReplacementToken: "[NAME]", Status: domain.DetectionRedacted},
				{ID: "d2", TurnIndex: 0, StartOffset: 15, EndOffset: 21, OriginalText: "Berlin", ReplacementToken: "[LOCATION]", Status: domain.DetectionRedacted},
			}, nil
		},
	}
	pipe := New(store, engine)

	pending, err := pipe.ScanPII(context.Background(), session.ID, domain.PiiHints{})
	if err != nil {
		t.Fatalf("ScanPII: %v", err)
	}

	// Commit only the first detection; the second is excluded entirely.
	updated, err := pipe.Anonymise(session.ID, pending[:1])
	if err != nil {
		t.Fatalf("Anonymise: %v", err)
	}

	if updated.AnonymisationLog.Excluded != 1 {
		t.Errorf("excluded = %d, want 1", updated.AnonymisationLog.Excluded)
	}
	if len(updated.AnonymisationLog.Pending) != 0 {
		t.Errorf("pending detections must be cleared on commit")
	}

	// The committed session must not retain the original substring
	// anywhere, which is the irreversibility guarantee.
	stored, _ := store.GetSession(session.ID)
	if stored.Transcript[0].Text != "I met [NAME] in Berlin" {
		t.Errorf("redacted text = %q", stored.Transcript[0].Text)
	}
	if len(stored.AnonymisationLog.Pending) != 0 {
		t.Errorf("stored session still holds pending detections with original text")
	}
}

func TestAnonymiseIsOneWay(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	session := createTestSession(t, store, project.ID, fiveTurns())
	pipe := New(store, &stubEngine{})

	if _, err := pipe.Anonymise(session.ID, nil); err != nil {
		t.Fatalf("Anonymise: %v", err)
	}

	_, err := pipe.Anonymise(session.ID, nil)
	var stateErr *domain.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("second commit must be rejected, got %v", err)
	}
}

func TestAnonymiseConcurrentCommitsAdvanceOnce(t *testing.T) {
	store := newTestStore(t)
	project := createTestProject(t, store)
	session := createTestSession(t, store, project.ID, fiveTurns())
	pipe := New(store, &stubEngine{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = pipe.Anonymise(session.ID, nil)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var stateErr *domain.InvalidStateError
		if !errors.As(err, &stateErr) {
			t.Errorf("loser must fail with InvalidStateError, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("exactly one commit must win, got %d", succeeded)
	}
}
