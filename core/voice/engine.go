package voice

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/soundsteps/core"
	"github.com/trezcool/soundsteps/core/lesson"
	"github.com/trezcool/soundsteps/core/session"
)

const apologyText = "Sorry, there was an error. Please try again later."

type (
	// CallEvent is one inbound voice webhook delivery.
	CallEvent struct {
		SessionID   string // provider call correlation id
		CallerPhone string
		IsActive    string // "0" once the call has ended
		DTMFDigits  string
		Direction   string
	}

	// Completer is notified when a session reaches the terminal state; the
	// reward pipeline implements it.
	Completer interface {
		Complete(sess session.Session, l lesson.Lesson)
	}

	// Engine drives the IVR conversation. Given (session, inbound event) it
	// returns the outbound voice-markup document; all state transitions are
	// serialized per call id by the session service.
	Engine struct {
		conf      *core.Config
		sessions  *session.Service
		lessons   lesson.Repository
		completer Completer
		logger    core.Logger

		mu    sync.RWMutex
		flows map[string]*Flow
	}
)

func NewEngine(
	conf *core.Config,
	sessions *session.Service,
	lessons lesson.Repository,
	completer Completer,
	logger core.Logger,
) *Engine {
	return &Engine{
		conf:      conf,
		sessions:  sessions,
		lessons:   lessons,
		completer: completer,
		logger:    logger,
		flows:     make(map[string]*Flow),
	}
}

// HandleEvent handles call-progress webhooks: new calls, resumed turns and
// call teardown. The learner always gets a response document, even on the
// fatal-error path.
func (e *Engine) HandleEvent(ev CallEvent) (doc string) {
	defer e.recoverToApology(&doc, ev)

	if ev.IsActive == "0" {
		e.endCall(ev)
		return Document("")
	}

	var (
		out       string
		fire      bool
		completed session.Session
		flowUsed  *Flow
	)
	err := e.sessions.Do(session.ChannelVoice, ev.SessionID, func(repo session.Repository) error {
		sess, err := e.getOrCreate(repo, ev)
		if err != nil {
			return err
		}
		f, err := e.flowFor(sess.LessonID)
		if err != nil {
			return err
		}
		flowUsed = f

		st, ok := f.State(sess.CurrentState)
		if !ok {
			return errors.Errorf("unknown flow state %q for session %s", sess.CurrentState, sess.ID)
		}

		out = e.render(f, st, &sess)
		// non-gather states render then advance; the next inbound event
		// renders the following node (one webhook turn == one response)
		dirty := false
		if !st.Gather && st.Next != "" {
			sess.CurrentState = st.Next
			dirty = true
		}
		if sess.CurrentState == StateEnd {
			if endErr := sess.End(session.StatusCompleted, time.Now()); endErr == nil {
				fire = true
				completed = sess
				dirty = true
			}
		}
		if dirty {
			if _, err = repo.UpdateSession(sess); err != nil {
				return errors.Wrap(err, "persisting auto-advance")
			}
		}
		return nil
	})
	if err != nil {
		e.logger.Error(fmt.Sprintf("voice event failed: %v", err), err, ev.CallerPhone)
		return e.apologyDoc()
	}

	if fire {
		go e.completer.Complete(completed, flowUsed.Lesson)
	}
	return Document(out)
}

// HandleDigits handles DTMF webhooks for gather states.
func (e *Engine) HandleDigits(ev CallEvent) (doc string) {
	defer e.recoverToApology(&doc, ev)

	var (
		out       string
		fire      bool
		completed session.Session
		flowUsed  *Flow
	)
	err := e.sessions.Do(session.ChannelVoice, ev.SessionID, func(repo session.Repository) error {
		sess, err := e.getOrCreate(repo, ev)
		if err != nil {
			return err
		}
		f, err := e.flowFor(sess.LessonID)
		if err != nil {
			return err
		}
		flowUsed = f

		st, ok := f.State(sess.CurrentState)
		if !ok {
			return errors.Errorf("unknown flow state %q for session %s", sess.CurrentState, sess.ID)
		}
		if !st.Gather {
			e.logger.Warn(fmt.Sprintf("digits %q received at non-gather state %q", ev.DTMFDigits, st.Name))
			out = Say("Invalid input.") + Hangup()
			return nil
		}

		res, err := f.Transition(st, core.CleanString(ev.DTMFDigits), &sess)
		if err != nil {
			return err
		}
		next, ok := f.State(res.Next)
		if !ok {
			return errors.Errorf("transition from %q yielded unknown state %q", st.Name, res.Next)
		}

		sess.CurrentState = res.Next
		if res.Feedback != "" {
			out = Say(res.Feedback)
		}
		out += e.render(f, next, &sess)
		if !next.Gather && next.Next != "" {
			sess.CurrentState = next.Next
		}

		// the flow lands on end either directly (wrap) or through an announce
		// auto-advance (caregiverConfirm). End succeeds exactly once; provider
		// retries land on a terminal session and never re-fire the pipeline.
		if sess.CurrentState == StateEnd {
			if endErr := sess.End(session.StatusCompleted, time.Now()); endErr == nil {
				fire = true
				completed = sess
			}
		}

		if _, err = repo.UpdateSession(sess); err != nil {
			return errors.Wrap(err, "persisting transition")
		}
		return nil
	})
	if err != nil {
		e.logger.Error(fmt.Sprintf("dtmf event failed: %v", err), err, ev.CallerPhone)
		return e.apologyDoc()
	}

	if fire {
		go e.completer.Complete(completed, flowUsed.Lesson)
	}
	return Document(out)
}

func (e *Engine) getOrCreate(repo session.Repository, ev CallEvent) (session.Session, error) {
	sess, err := repo.GetSessionByChannelID(session.ChannelVoice, ev.SessionID)
	if err == nil {
		return sess, nil
	}
	if errors.Cause(err) != session.ErrNotFound {
		return session.Session{}, errors.Wrap(err, "loading session")
	}

	sess = session.New(session.ChannelVoice, ev.SessionID, ev.CallerPhone, e.conf.DefaultLessonID)
	sess, err = repo.CreateSession(sess)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "creating session")
	}
	return sess, nil
}

// endCall marks a still-running session abandoned when the provider reports
// call teardown before the flow reached its end.
func (e *Engine) endCall(ev CallEvent) {
	err := e.sessions.Do(session.ChannelVoice, ev.SessionID, func(repo session.Repository) error {
		sess, err := repo.GetSessionByChannelID(session.ChannelVoice, ev.SessionID)
		if err != nil {
			if errors.Cause(err) == session.ErrNotFound {
				return nil
			}
			return err
		}
		if sess.IsTerminal() {
			return nil
		}
		if err = sess.End(session.StatusAbandoned, time.Now()); err != nil {
			return err
		}
		_, err = repo.UpdateSession(sess)
		return err
	})
	if err != nil {
		e.logger.Error(fmt.Sprintf("closing call session: %v", err), err, ev.CallerPhone)
	}
}

func (e *Engine) flowFor(lessonID string) (*Flow, error) {
	e.mu.RLock()
	f, ok := e.flows[lessonID]
	e.mu.RUnlock()
	if ok {
		return f, nil
	}

	l, err := e.lessons.GetLessonByID(lessonID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading lesson %q", lessonID)
	}
	f, err = NewFlow(l)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.flows[lessonID] = f
	e.mu.Unlock()
	return f, nil
}

func (e *Engine) render(f *Flow, st State, sess *session.Session) string {
	switch st.Kind {
	case KindExample:
		return Gather(e.dtmfURL(), examplePrompt(st))
	case KindQuestion:
		return Gather(e.dtmfURL(), questionPrompt(st))
	case KindWrap:
		text := fmt.Sprintf(
			"Thanks! You finished the lesson. You answered %d out of %d questions correctly. "+
				"If you would like a caregiver to receive a short SMS summary, press 8 now. "+
				"To repeat the lesson, press 9. To end the call, press 0.",
			sess.Score, f.TotalQuestions(),
		)
		return Gather(e.dtmfURL(), text)
	case KindCaregiverCollect:
		return Say(
			"Please enter the caregiver phone number starting with country code. "+
				"For example, 2547 followed by digits. Then press the hash key.",
		) + Gather(e.dtmfURL(), "Enter number now, then press hash.", GatherOptions{Timeout: 15, NumDigits: -1, FinishOnKey: "#"})
	default:
		out := Say(st.Prompt)
		if st.Hangup {
			out += Hangup()
		}
		return out
	}
}

func (e *Engine) dtmfURL() string {
	return e.conf.BaseURL + "/webhooks/voice/dtmf"
}

func (e *Engine) apologyDoc() string {
	return Document(Say(apologyText) + Hangup())
}

// recoverToApology keeps a malformed webhook from taking the process down for
// other concurrent callers; the learner still hears something.
func (e *Engine) recoverToApology(doc *string, ev CallEvent) {
	if r := recover(); r != nil {
		e.logger.Error(fmt.Sprintf("voice engine panic: %v", r), ev.CallerPhone)
		*doc = e.apologyDoc()
	}
}

func examplePrompt(st State) string {
	return st.Question.Text + " " + optionsPrompt(st.Question.Options)
}

func questionPrompt(st State) string {
	return fmt.Sprintf("Q%d: %s %s", st.QuestionIndex+1, st.Question.Text, optionsPrompt(st.Question.Options))
}

func optionsPrompt(options []string) string {
	parts := make([]string, 0, len(options))
	for i, opt := range options {
		parts = append(parts, fmt.Sprintf("press %d for %s", i+1, opt))
	}
	out := strings.Join(parts, ", ") + "."
	return strings.ToUpper(out[:1]) + out[1:]
}
