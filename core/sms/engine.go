package sms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/soundsteps/core"
	"github.com/trezcool/soundsteps/core/lesson"
	"github.com/trezcool/soundsteps/core/session"
)

// Fixed reply texts; property of the channel, not of any lesson.
const (
	MsgNoActiveLesson = "No active lesson found. Contact your teacher to start a lesson."
	MsgAnswerFormat   = "Please reply with A, B, C, D or 1, 2, 3, 4."
)

var answerLetters = []string{"A", "B", "C", "D"}

type (
	// Completer is notified when the last question has been answered.
	Completer interface {
		Complete(sess session.Session, l lesson.Lesson)
	}

	// Engine drives the SMS quiz conversation: at most one active session per
	// phone number (the repository's latest-session lookup plus the terminal
	// check), free-text replies normalized to answer letters, malformed input
	// re-prompted without consuming a question.
	Engine struct {
		conf      *core.Config
		sessions  *session.Service
		lessons   lesson.Repository
		provider  core.Provider
		completer Completer
		logger    core.Logger
		delay     Delayer
	}
)

func NewEngine(
	conf *core.Config,
	sessions *session.Service,
	lessons lesson.Repository,
	provider core.Provider,
	completer Completer,
	logger core.Logger,
	delay Delayer,
) *Engine {
	return &Engine{
		conf:      conf,
		sessions:  sessions,
		lessons:   lessons,
		provider:  provider,
		completer: completer,
		logger:    logger,
		delay:     delay,
	}
}

// Start begins a lesson for a phone number, replacing any session already in
// flight for it. The intro goes out immediately; the first question follows
// after a short delay so the handset is likely to show them in order.
// Returns the total question count for the caller's acknowledgement.
func (e *Engine) Start(ctx context.Context, phone, lessonID string) (int, error) {
	l, err := e.lessons.GetLessonByID(lessonID)
	if err != nil {
		return 0, errors.Wrapf(err, "loading lesson %q", lessonID)
	}
	if len(l.Questions) == 0 {
		return 0, core.NewValidationError(errors.New("lesson has no quiz questions"))
	}

	err = e.sessions.Do(session.ChannelSMS, phone, func(repo session.Repository) error {
		// a replaced session still gets its terminal record
		if prev, gErr := repo.GetSessionByChannelID(session.ChannelSMS, phone); gErr == nil && !prev.IsTerminal() {
			if eErr := prev.End(session.StatusAbandoned, time.Now()); eErr == nil {
				if _, uErr := repo.UpdateSession(prev); uErr != nil {
					return errors.Wrap(uErr, "closing replaced session")
				}
			}
		}

		sess := session.New(session.ChannelSMS, phone, phone, lessonID)
		sess.CurrentState = ""
		if _, cErr := repo.CreateSession(sess); cErr != nil {
			return errors.Wrap(cErr, "creating session")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if _, err = e.provider.SendText(ctx, phone, introMessage(l)); err != nil {
		e.logger.Error(fmt.Sprintf("sending lesson intro: %v", err), err, phone)
	}

	e.delay.After(e.conf.Reward.FirstQuestionWait, func() {
		e.sendFirstQuestion(phone, l)
	})
	return len(l.Questions), nil
}

func (e *Engine) sendFirstQuestion(phone string, l lesson.Lesson) {
	err := e.sessions.Do(session.ChannelSMS, phone, func(repo session.Repository) error {
		sess, gErr := repo.GetSessionByChannelID(session.ChannelSMS, phone)
		if gErr != nil {
			return gErr
		}
		if sess.IsTerminal() || sess.QuestionIndex >= 0 {
			return nil // replaced, finished or already answering
		}
		sess.QuestionIndex = 0
		if _, uErr := repo.UpdateSession(sess); uErr != nil {
			return uErr
		}
		_, sErr := e.provider.SendText(context.Background(), phone, questionMessage(l, 0))
		return sErr
	})
	if err != nil {
		e.logger.Error(fmt.Sprintf("sending first question: %v", err), err, phone)
	}
}

// HandleReply consumes one inbound SMS. Unknown senders get the fixed
// no-active-lesson message; malformed answers get the format hint and do not
// advance the quiz.
func (e *Engine) HandleReply(ctx context.Context, phone, text string) error {
	var (
		fire      bool
		completed session.Session
		doneLsn   lesson.Lesson
	)
	err := e.sessions.Do(session.ChannelSMS, phone, func(repo session.Repository) error {
		sess, gErr := repo.GetSessionByChannelID(session.ChannelSMS, phone)
		if gErr != nil || sess.IsTerminal() {
			if gErr != nil && errors.Cause(gErr) != session.ErrNotFound {
				return errors.Wrap(gErr, "loading session")
			}
			e.send(ctx, phone, MsgNoActiveLesson)
			return nil
		}

		l, lErr := e.lessons.GetLessonByID(sess.LessonID)
		if lErr != nil {
			return errors.Wrapf(lErr, "loading lesson %q", sess.LessonID)
		}

		answer, ok := NormalizeAnswer(text)
		if !ok {
			// the one retry-capable point in the system
			e.send(ctx, phone, MsgAnswerFormat)
			return nil
		}

		idx := sess.QuestionIndex
		if idx < 0 {
			// the reply outran the delayed first question; the learner is
			// answering question one
			idx = 0
		}
		q := l.Questions[idx]
		correct := answer == q.CorrectLetter()
		if rErr := sess.RecordAnswer(answer, correct, len(l.Questions)); rErr != nil {
			return errors.Wrap(rErr, "recording answer")
		}

		if correct {
			e.send(ctx, phone, "Correct!")
		} else {
			e.send(ctx, phone, fmt.Sprintf("Wrong. Answer: %s", q.CorrectLetter()))
		}

		sess.QuestionIndex = idx + 1
		if sess.QuestionIndex < len(l.Questions) {
			if _, uErr := repo.UpdateSession(sess); uErr != nil {
				return errors.Wrap(uErr, "persisting progress")
			}
			e.send(ctx, phone, questionMessage(l, sess.QuestionIndex))
			return nil
		}

		if eErr := sess.End(session.StatusCompleted, time.Now()); eErr == nil {
			fire = true
			completed = sess
			doneLsn = l
		}
		if _, uErr := repo.UpdateSession(sess); uErr != nil {
			return errors.Wrap(uErr, "persisting completion")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if fire {
		go e.completer.Complete(completed, doneLsn)
	}
	return nil
}

// Progress returns the latest session for a phone number, for the teacher
// dashboard.
func (e *Engine) Progress(phone string) (session.Session, error) {
	return e.sessions.Repo().GetSessionByChannelID(session.ChannelSMS, phone)
}

func (e *Engine) send(ctx context.Context, phone, body string) {
	if _, err := e.provider.SendText(ctx, phone, body); err != nil {
		e.logger.Error(fmt.Sprintf("sending sms: %v", err), err, phone)
	}
}

// NormalizeAnswer maps a free-text reply onto an answer letter: A-D pass
// through case-insensitively, 1-4 map positionally (1->A .. 4->D).
func NormalizeAnswer(text string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(text))
	switch t {
	case "1", "2", "3", "4":
		return answerLetters[int(t[0]-'1')], true
	case "A", "B", "C", "D":
		return t, true
	}
	return "", false
}

func introMessage(l lesson.Lesson) string {
	desc := l.Description
	if len(desc) > 160 {
		desc = desc[:160]
	}
	return fmt.Sprintf("%s\n\n%s\n\nStarting quiz now...", l.Title, desc)
}

func questionMessage(l lesson.Lesson, idx int) string {
	q := l.Questions[idx]
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d/%d\n\n%s\n\n", idx+1, len(l.Questions), q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "%s) %s\n", answerLetters[i], opt)
	}
	b.WriteString("\nReply A, B, C or D")
	return b.String()
}
