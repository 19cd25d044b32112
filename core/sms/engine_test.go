package sms_test

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/soundsteps/core"
	"github.com/trezcool/soundsteps/core/lesson"
	"github.com/trezcool/soundsteps/core/session"
	"github.com/trezcool/soundsteps/core/sms"
	providersvc "github.com/trezcool/soundsteps/services/provider"
	dummydb "github.com/trezcool/soundsteps/storage/database/dummy"
	testutil "github.com/trezcool/soundsteps/tests"
)

const learnerPhone = "+254712345678"

type completerSpy struct {
	mu    sync.Mutex
	calls []session.Session
	done  chan struct{}
}

func newCompleterSpy() *completerSpy {
	return &completerSpy{done: make(chan struct{}, 4)}
}

func (c *completerSpy) Complete(sess session.Session, l lesson.Lesson) {
	c.mu.Lock()
	c.calls = append(c.calls, sess)
	c.mu.Unlock()
	c.done <- struct{}{}
}

func (c *completerSpy) wait(t *testing.T) session.Session {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("completion pipeline was not invoked")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[len(c.calls)-1]
}

func setup(t *testing.T) (*sms.Engine, session.Repository, *providersvc.MockService, *completerSpy) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	sessionRepo := dummydb.NewSessionRepository(db)

	logger := testutil.NewLogger(t)
	provider := providersvc.NewMockService(logger)
	spy := newCompleterSpy()
	conf := &core.Config{DefaultLessonID: "basic-addition-001"}

	engine := sms.NewEngine(
		conf,
		session.NewService(sessionRepo),
		dummydb.NewLessonRepository(db),
		provider,
		spy,
		logger,
		sms.ImmediateDelayer{},
	)
	return engine, sessionRepo, provider, spy
}

func startLesson(t *testing.T, engine *sms.Engine) {
	t.Helper()
	if _, err := engine.Start(context.Background(), learnerPhone, "basic-addition-001"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
}

func lastTexts(provider *providersvc.MockService, n int) []string {
	actions := provider.Actions()
	texts := make([]string, 0, n)
	for _, a := range actions {
		if a.Kind == providersvc.ActionText {
			texts = append(texts, a.Body)
		}
	}
	if len(texts) > n {
		texts = texts[len(texts)-n:]
	}
	return texts
}

func TestStart(t *testing.T) {
	engine, repo, provider, _ := setup(t)

	total, err := engine.Start(context.Background(), learnerPhone, "basic-addition-001")
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d; want 2", total)
	}

	texts := lastTexts(provider, 2)
	if len(texts) != 2 {
		t.Fatalf("sent %d texts; want intro + first question", len(texts))
	}
	if !strings.Contains(texts[0], "Basic Addition") {
		t.Errorf("intro = %q; want the lesson title", texts[0])
	}
	if !strings.Contains(texts[1], "Question 1/2") || !strings.Contains(texts[1], "Reply A, B, C or D") {
		t.Errorf("first question = %q", texts[1])
	}

	sess, err := repo.GetSessionByChannelID(session.ChannelSMS, learnerPhone)
	if err != nil {
		t.Fatalf("session was not created: %v", err)
	}
	if sess.QuestionIndex != 0 {
		t.Errorf("QuestionIndex = %d; want 0", sess.QuestionIndex)
	}
}

func TestStartUnknownLesson(t *testing.T) {
	engine, _, provider, _ := setup(t)

	if _, err := engine.Start(context.Background(), learnerPhone, "nope"); err == nil {
		t.Error("Start() must fail for an unknown lesson")
	}
	if len(provider.Actions()) != 0 {
		t.Error("no texts may go out for an unknown lesson")
	}
}

func TestStartReplacesActiveSession(t *testing.T) {
	engine, repo, _, _ := setup(t)

	startLesson(t, engine)
	first, _ := repo.GetSessionByChannelID(session.ChannelSMS, learnerPhone)

	startLesson(t, engine)

	old, err := repo.GetSessionByID(first.ID)
	if err != nil {
		t.Fatalf("GetSessionByID() failed: %v", err)
	}
	if old.Status != session.StatusAbandoned {
		t.Errorf("replaced session status = %q; want %q", old.Status, session.StatusAbandoned)
	}

	current, _ := repo.GetSessionByChannelID(session.ChannelSMS, learnerPhone)
	if current.ID == first.ID || current.IsTerminal() {
		t.Errorf("current session = %+v; want a fresh in-progress one", current)
	}
}

func TestHandleReply(t *testing.T) {
	t.Run("unknown sender", func(t *testing.T) {
		engine, _, provider, _ := setup(t)
		if err := engine.HandleReply(context.Background(), "+254700000000", "A"); err != nil {
			t.Fatalf("HandleReply() failed: %v", err)
		}
		texts := lastTexts(provider, 1)
		if len(texts) != 1 || texts[0] != sms.MsgNoActiveLesson {
			t.Errorf("texts = %v; want the no-active-lesson notice", texts)
		}
	})

	t.Run("malformed answer does not advance", func(t *testing.T) {
		engine, repo, provider, _ := setup(t)
		startLesson(t, engine)

		if err := engine.HandleReply(context.Background(), learnerPhone, "hello"); err != nil {
			t.Fatalf("HandleReply() failed: %v", err)
		}
		texts := lastTexts(provider, 1)
		if texts[0] != sms.MsgAnswerFormat {
			t.Errorf("reply = %q; want the format hint", texts[0])
		}

		sess, _ := repo.GetSessionByChannelID(session.ChannelSMS, learnerPhone)
		if sess.QuestionIndex != 0 || len(sess.Answers) != 0 {
			t.Errorf("malformed input advanced the quiz: %+v", sess)
		}
	})

	t.Run("correct answer advances with feedback", func(t *testing.T) {
		engine, repo, provider, _ := setup(t)
		startLesson(t, engine)

		if err := engine.HandleReply(context.Background(), learnerPhone, "b"); err != nil {
			t.Fatalf("HandleReply() failed: %v", err)
		}
		texts := lastTexts(provider, 2)
		if texts[0] != "Correct!" {
			t.Errorf("feedback = %q; want Correct!", texts[0])
		}
		if !strings.Contains(texts[1], "Question 2/2") {
			t.Errorf("follow-up = %q; want question 2", texts[1])
		}

		sess, _ := repo.GetSessionByChannelID(session.ChannelSMS, learnerPhone)
		if sess.QuestionIndex != 1 || sess.Score != 1 {
			t.Errorf("session = %+v; want QuestionIndex 1 Score 1", sess)
		}
	})

	t.Run("wrong answer reveals the correct letter", func(t *testing.T) {
		engine, _, provider, _ := setup(t)
		startLesson(t, engine)

		if err := engine.HandleReply(context.Background(), learnerPhone, "D"); err != nil {
			t.Fatalf("HandleReply() failed: %v", err)
		}
		texts := lastTexts(provider, 2)
		if texts[0] != "Wrong. Answer: B" {
			t.Errorf("feedback = %q; want the correct letter", texts[0])
		}
	})

	t.Run("last answer completes the session", func(t *testing.T) {
		engine, repo, provider, spy := setup(t)
		startLesson(t, engine)

		if err := engine.HandleReply(context.Background(), learnerPhone, "2"); err != nil {
			t.Fatalf("HandleReply() failed: %v", err)
		}
		if err := engine.HandleReply(context.Background(), learnerPhone, "B"); err != nil {
			t.Fatalf("HandleReply() failed: %v", err)
		}

		completed := spy.wait(t)
		if completed.Score != 2 {
			t.Errorf("Score = %d; want 2", completed.Score)
		}
		if want := []string{"B", "B"}; !reflect.DeepEqual(completed.Answers, want) {
			t.Errorf("Answers = %v; want %v", completed.Answers, want)
		}

		sess, _ := repo.GetSessionByID(completed.ID)
		if sess.Status != session.StatusCompleted || !sess.EndedAt.Valid {
			t.Errorf("session = %+v; want completed with EndedAt", sess)
		}

		// the conversation is over; a further reply gets the fixed notice
		if err := engine.HandleReply(context.Background(), learnerPhone, "A"); err != nil {
			t.Fatalf("HandleReply() failed: %v", err)
		}
		texts := lastTexts(provider, 1)
		if len(texts) != 1 || texts[0] != sms.MsgNoActiveLesson {
			t.Errorf("texts = %v; want the no-active-lesson notice", texts)
		}
	})
}

func TestProgress(t *testing.T) {
	engine, _, _, _ := setup(t)

	if _, err := engine.Progress(learnerPhone); err != session.ErrNotFound {
		t.Errorf("Progress() err = %v; want ErrNotFound", err)
	}

	startLesson(t, engine)
	sess, err := engine.Progress(learnerPhone)
	if err != nil {
		t.Fatalf("Progress() failed: %v", err)
	}
	if sess.LessonID != "basic-addition-001" {
		t.Errorf("LessonID = %q", sess.LessonID)
	}
}

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "A", want: "A", wantOK: true},
		{in: "b", want: "B", wantOK: true},
		{in: " c ", want: "C", wantOK: true},
		{in: "D", want: "D", wantOK: true},
		{in: "1", want: "A", wantOK: true},
		{in: "4", want: "D", wantOK: true},
		{in: "5", wantOK: false},
		{in: "E", wantOK: false},
		{in: "AB", wantOK: false},
		{in: "", wantOK: false},
		{in: "hello", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := sms.NormalizeAnswer(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("NormalizeAnswer(%q) = (%q, %v); want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
