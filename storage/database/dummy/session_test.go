package dummydb

import (
	"testing"
	"time"

	"github.com/trezcool/soundsteps/core/session"
)

func newRepo(t *testing.T) session.Repository {
	t.Helper()
	db, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return NewSessionRepository(db)
}

func TestSessionRepository(t *testing.T) {
	repo := newRepo(t)

	sess := session.New(session.ChannelVoice, "call-1", "+254712345678", "l1")
	if _, err := repo.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	t.Run("stored copies are isolated from caller mutations", func(t *testing.T) {
		sess.Answers = append(sess.Answers, "2")
		got, err := repo.GetSessionByID(sess.ID)
		if err != nil {
			t.Fatalf("GetSessionByID() failed: %v", err)
		}
		if len(got.Answers) != 0 {
			t.Errorf("Answers = %v; want the state at creation time", got.Answers)
		}
	})

	t.Run("update unknown session", func(t *testing.T) {
		other := session.New(session.ChannelVoice, "call-x", "+254712345678", "l1")
		if _, err := repo.UpdateSession(other); err != session.ErrNotFound {
			t.Errorf("UpdateSession() err = %v; want ErrNotFound", err)
		}
	})

	t.Run("latest session wins for a reused channel id", func(t *testing.T) {
		older := session.New(session.ChannelVoice, "call-2", "+254712345678", "l1")
		older.StartedAt = time.Now().Add(-time.Hour).UTC()
		newer := session.New(session.ChannelVoice, "call-2", "+254712345678", "l1")

		if _, err := repo.CreateSession(older); err != nil {
			t.Fatalf("CreateSession() failed: %v", err)
		}
		if _, err := repo.CreateSession(newer); err != nil {
			t.Fatalf("CreateSession() failed: %v", err)
		}

		got, err := repo.GetSessionByChannelID(session.ChannelVoice, "call-2")
		if err != nil {
			t.Fatalf("GetSessionByChannelID() failed: %v", err)
		}
		if got.ID != newer.ID {
			t.Errorf("got session %s; want the most recent %s", got.ID, newer.ID)
		}
	})

	t.Run("recent sessions are ordered and limited", func(t *testing.T) {
		sessions, err := repo.QueryRecentSessions(2)
		if err != nil {
			t.Fatalf("QueryRecentSessions() failed: %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("len = %d; want 2", len(sessions))
		}
		if sessions[0].StartedAt.Before(sessions[1].StartedAt) {
			t.Error("sessions are not ordered most recent first")
		}
	})
}

func TestLessonRepository(t *testing.T) {
	db, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	repo := NewLessonRepository(db)

	l, err := repo.GetLessonByID("basic-addition-001")
	if err != nil {
		t.Fatalf("GetLessonByID() failed: %v", err)
	}
	if len(l.Questions) != 2 {
		t.Errorf("len(Questions) = %d; want 2", len(l.Questions))
	}

	if _, err := repo.GetLessonByID("nope"); err == nil {
		t.Error("GetLessonByID() must fail for an unknown lesson")
	}
}
