package transcript

import (
	"testing"
)

func TestParseBoldSpeakerLines(t *testing.T) {
	content := "# Session 1\n\n**Interviewer:** Tell me about your day.\n\n**Sarah:** It started early.\n"

	turns := Parse(content)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}

	if turns[0].Speaker != "Interviewer" || !turns[0].IsInterviewer {
		t.Errorf("turn 0 = %+v, want interviewer", turns[0])
	}
	if turns[0].Text != "Tell me about your day." {
		t.Errorf("turn 0 text = %q", turns[0].Text)
	}
	if turns[1].Speaker != "Sarah" || turns[1].IsInterviewer {
		t.Errorf("turn 1 = %+v, want participant", turns[1])
	}
}

func TestParsePlainSpeakerLines(t *testing.T) {
	content := "Moderator: How often do you shop online?\nP01: Maybe twice a week.\n"

	turns := Parse(content)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if !turns[0].IsInterviewer {
		t.Errorf("moderator should be detected as interviewer")
	}
	if turns[1].Speaker != "P01" || turns[1].Text != "Maybe twice a week." {
		t.Errorf("turn 1 = %+v", turns[1])
	}
}

func TestParseInlineTimestamps(t *testing.T) {
	content := "[00:01:15] Interviewer: Let's begin.\n[1:30] Sarah: Sure.\n"

	turns := Parse(content)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Timestamp != "00:01:15" {
		t.Errorf("turn 0 timestamp = %q, want 00:01:15", turns[0].Timestamp)
	}
	if turns[1].Timestamp != "00:01:30" {
		t.Errorf("turn 1 timestamp = %q, want 00:01:30", turns[1].Timestamp)
	}
}

func TestParseStandaloneTimestampAttachesToNextTurn(t *testing.T) {
	content := "[00:05:00]\nInterviewer: Moving on.\nSarah: Okay.\n"

	turns := Parse(content)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Timestamp != "00:05:00" {
		t.Errorf("standalone stamp should attach to next speaker, got %q", turns[0].Timestamp)
	}
	if turns[1].Timestamp != "" {
		t.Errorf("stamp must not leak onto later turns, got %q", turns[1].Timestamp)
	}
}

func TestParseMultiLineAnswers(t *testing.T) {
	content := "Sarah: It started badly.\nThe app crashed twice.\nThen it worked.\nInterviewer: What happened next?\n"

	turns := Parse(content)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	want := "It started badly. The app crashed twice. Then it worked."
	if turns[0].Text != want {
		t.Errorf("turn 0 text = %q, want %q", turns[0].Text, want)
	}
}

func TestParseSkipsHeadersAndDividers(t *testing.T) {
	content := "# Transcript\n## Part one\n---\nSarah: Hello.\n"

	turns := Parse(content)
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
}

func TestParseAssignsSequentialIndices(t *testing.T) {
	content := "Ann: one\nBob: two\nAnn: three\n"

	turns := Parse(content)
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	for i, turn := range turns {
		if turn.Index != i {
			t.Errorf("turn %d has index %d", i, turn.Index)
		}
	}
}

func TestParseEmptyInput(t *testing.T) {
	if turns := Parse(""); len(turns) != 0 {
		t.Errorf("expected no turns for empty input, got %d", len(turns))
	}
	if turns := Parse("just some prose\nwith no speakers\n"); len(turns) != 0 {
		t.Errorf("expected no turns without speaker lines, got %d", len(turns))
	}
}
