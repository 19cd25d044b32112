package session

import (
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	sess := New(ChannelVoice, "ATCid_123", "+254712345678", "basic-addition-001")

	if sess.ID == "" {
		t.Error("New() did not assign an id")
	}
	if sess.CurrentState != "intro" {
		t.Errorf("CurrentState = %q; want %q", sess.CurrentState, "intro")
	}
	if sess.QuestionIndex != -1 {
		t.Errorf("QuestionIndex = %d; want -1", sess.QuestionIndex)
	}
	if sess.Status != StatusInProgress {
		t.Errorf("Status = %q; want %q", sess.Status, StatusInProgress)
	}
	if sess.IsTerminal() {
		t.Error("new session must not be terminal")
	}
	if len(sess.Answers) != 0 {
		t.Errorf("Answers = %v; want empty", sess.Answers)
	}
	if sess.EndedAt.Valid {
		t.Error("EndedAt must not be set on a new session")
	}
}

func TestRecordAnswer(t *testing.T) {
	total := 2

	t.Run("score counts only correct answers", func(t *testing.T) {
		sess := New(ChannelVoice, "c1", "+254712345678", "l1")
		if err := sess.RecordAnswer("2", true, total); err != nil {
			t.Fatalf("RecordAnswer() failed: %v", err)
		}
		if err := sess.RecordAnswer("1", false, total); err != nil {
			t.Fatalf("RecordAnswer() failed: %v", err)
		}
		if sess.Score != 1 {
			t.Errorf("Score = %d; want 1", sess.Score)
		}
		if len(sess.Answers) != 2 {
			t.Errorf("len(Answers) = %d; want 2", len(sess.Answers))
		}
	})

	t.Run("answers never exceed the question count", func(t *testing.T) {
		sess := New(ChannelVoice, "c1", "+254712345678", "l1")
		_ = sess.RecordAnswer("2", true, total)
		_ = sess.RecordAnswer("2", true, total)
		if err := sess.RecordAnswer("2", true, total); err != ErrQuizFull {
			t.Errorf("RecordAnswer() err = %v; want ErrQuizFull", err)
		}
		if len(sess.Answers) != total {
			t.Errorf("len(Answers) = %d; want %d", len(sess.Answers), total)
		}
	})

	t.Run("terminal sessions reject answers", func(t *testing.T) {
		sess := New(ChannelSMS, "+254712345678", "+254712345678", "l1")
		if err := sess.End(StatusCompleted, time.Now()); err != nil {
			t.Fatalf("End() failed: %v", err)
		}
		if err := sess.RecordAnswer("2", true, total); err != ErrAlreadyEnded {
			t.Errorf("RecordAnswer() err = %v; want ErrAlreadyEnded", err)
		}
	})
}

func TestResetQuiz(t *testing.T) {
	sess := New(ChannelVoice, "c1", "+254712345678", "l1")
	_ = sess.RecordAnswer("2", true, 2)
	_ = sess.RecordAnswer("1", false, 2)

	sess.ResetQuiz()

	if len(sess.Answers) != 0 || sess.Score != 0 {
		t.Errorf("ResetQuiz() left Answers=%v Score=%d; want empty and 0", sess.Answers, sess.Score)
	}
	// a full quiz can be answered again after the reset
	if err := sess.RecordAnswer("2", true, 2); err != nil {
		t.Errorf("RecordAnswer() after reset failed: %v", err)
	}
}

func TestEnd(t *testing.T) {
	t.Run("sets terminal status and timestamp once", func(t *testing.T) {
		sess := New(ChannelVoice, "c1", "+254712345678", "l1")
		at := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

		if err := sess.End(StatusCompleted, at); err != nil {
			t.Fatalf("End() failed: %v", err)
		}
		if sess.Status != StatusCompleted {
			t.Errorf("Status = %q; want %q", sess.Status, StatusCompleted)
		}
		if !sess.EndedAt.Valid || !sess.EndedAt.Time.Equal(at) {
			t.Errorf("EndedAt = %v; want %v", sess.EndedAt, at)
		}

		// a second End is rejected and changes nothing
		if err := sess.End(StatusAbandoned, at.Add(time.Hour)); err != ErrAlreadyEnded {
			t.Errorf("second End() err = %v; want ErrAlreadyEnded", err)
		}
		if sess.Status != StatusCompleted || !sess.EndedAt.Time.Equal(at) {
			t.Error("second End() must not mutate the session")
		}
	})

	t.Run("rejects a non-terminal status", func(t *testing.T) {
		sess := New(ChannelVoice, "c1", "+254712345678", "l1")
		if err := sess.End(StatusInProgress, time.Now()); err == nil {
			t.Error("End(StatusInProgress) must fail")
		}
	})
}
