package voice

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/soundsteps/core/lesson"
	"github.com/trezcool/soundsteps/core/session"
)

// Keypad conventions, shared across all gather states.
const (
	RepeatDigit    = "9"
	CaregiverDigit = "8"
	EndDigit       = "0"
)

// Flow state names.
const (
	StateIntro            = "intro"
	StateConcept          = "concept"
	StateExample          = "example1"
	StatePractice         = "practice"
	StateQuizSetup        = "quizSetup"
	StateWrap             = "wrap"
	StateCaregiverCollect = "caregiverCollect"
	StateCaregiverConfirm = "caregiverConfirm"
	StateEnd              = "end"
)

type StateKind int

const (
	// KindAnnounce speaks a static prompt and auto-advances to Next on the
	// following webhook turn.
	KindAnnounce StateKind = iota
	// KindExample gathers a digit for the teaching example; feedback only,
	// answers and score are untouched.
	KindExample
	// KindQuestion gathers a digit for a scored quiz question.
	KindQuestion
	// KindWrap gathers the post-quiz branch choice (restart / caregiver / end).
	KindWrap
	// KindCaregiverCollect gathers a variable-length phone number terminated
	// by the hash key.
	KindCaregiverCollect
)

// State is a node of the static flow graph. All data is fixed at flow build
// time; transitions are pure functions dispatched on Kind, so nothing here
// closes over mutable scope.
type State struct {
	Name     string
	Kind     StateKind
	Gather   bool
	Next     string // auto-advance target (announce states)
	NextDone string // advance target after a handled digit (example/question)
	Prompt   string // static prompt text (announce states)
	Hangup   bool   // append a hangup directive after the prompt

	Question      *lesson.Question // example/question states
	QuestionIndex int              // 0-based quiz position (question states)
	FeedbackOK    string           // example states
	FeedbackMiss  string
}

// Result of consuming a digit at a gather state.
type Result struct {
	Next     string
	Feedback string
}

// Flow is the immutable IVR script for one lesson: intro -> concept ->
// [example1] -> [practice] -> quizSetup -> q1..qN -> wrap ->
// [caregiverCollect -> caregiverConfirm ->] end. Built once and shared
// without locking.
type Flow struct {
	Lesson  lesson.Lesson
	Initial string
	states  map[string]State
}

// NewFlow builds the flow graph for a lesson. Lessons without quiz questions
// are a configuration error surfaced to the caller, not a crash.
func NewFlow(l lesson.Lesson) (*Flow, error) {
	if len(l.Questions) == 0 {
		return nil, errors.Errorf("lesson %q has no quiz questions", l.ID)
	}

	f := &Flow{
		Lesson:  l,
		Initial: StateIntro,
		states:  make(map[string]State, len(l.Questions)+8),
	}

	concept := l.Concept
	if concept == "" {
		concept = l.Description
	}

	afterConcept := StateQuizSetup
	if l.Example != nil {
		afterConcept = StateExample
	} else if l.Practice != "" {
		afterConcept = StatePractice
	}

	f.add(State{
		Name: StateIntro,
		Kind: KindAnnounce,
		Next: StateConcept,
		Prompt: fmt.Sprintf(
			"Hello! Welcome to SoundSteps. This is a short lesson on %s. "+
				"The lesson will take about %d minutes. To hear options at any time, press 9.",
			l.Title, durationMinutes(l),
		),
	})
	f.add(State{Name: StateConcept, Kind: KindAnnounce, Next: afterConcept, Prompt: concept})

	if l.Example != nil {
		afterExample := StateQuizSetup
		if l.Practice != "" {
			afterExample = StatePractice
		}
		correct := l.Example.Options[l.Example.CorrectIndex]
		f.add(State{
			Name:         StateExample,
			Kind:         KindExample,
			Gather:       true,
			NextDone:     afterExample,
			Question:     l.Example,
			FeedbackOK:   fmt.Sprintf("Correct! The answer is %s.", correct),
			FeedbackMiss: fmt.Sprintf("The correct answer is %s.", correct),
		})
	}
	if l.Practice != "" {
		f.add(State{Name: StatePractice, Kind: KindAnnounce, Next: StateQuizSetup, Prompt: l.Practice})
	}

	f.add(State{
		Name: StateQuizSetup,
		Kind: KindAnnounce,
		Next: questionState(0),
		Prompt: fmt.Sprintf(
			"Now a quick quiz with %d questions. For each question press the number "+
				"that matches the answer. If you want me to repeat the question, press 9.",
			len(l.Questions),
		),
	})

	for i := range l.Questions {
		next := StateWrap
		if i+1 < len(l.Questions) {
			next = questionState(i + 1)
		}
		f.add(State{
			Name:          questionState(i),
			Kind:          KindQuestion,
			Gather:        true,
			NextDone:      next,
			Question:      &l.Questions[i],
			QuestionIndex: i,
		})
	}

	f.add(State{Name: StateWrap, Kind: KindWrap, Gather: true})
	f.add(State{Name: StateCaregiverCollect, Kind: KindCaregiverCollect, Gather: true, NextDone: StateCaregiverConfirm})
	f.add(State{
		Name:   StateCaregiverConfirm,
		Kind:   KindAnnounce,
		Next:   StateEnd,
		Prompt: "You can now end the call. Goodbye and keep practicing!",
	})
	f.add(State{Name: StateEnd, Kind: KindAnnounce, Prompt: "Goodbye and keep practicing!", Hangup: true})

	return f, nil
}

func (f *Flow) add(st State) { f.states[st.Name] = st }

func (f *Flow) State(name string) (State, bool) {
	st, ok := f.states[name]
	return st, ok
}

func (f *Flow) TotalQuestions() int { return len(f.Lesson.Questions) }

// Transition consumes a digit at a gather state, mutating sess (answers,
// score, caregiver phone) and returning the next state name plus optional
// feedback to prefix to the next render.
func (f *Flow) Transition(st State, digits string, sess *session.Session) (Result, error) {
	switch st.Kind {
	case KindExample:
		if digits == RepeatDigit {
			return Result{Next: st.Name, Feedback: "Repeating the question."}, nil
		}
		if digits == st.Question.CorrectDigit() {
			return Result{Next: st.NextDone, Feedback: st.FeedbackOK}, nil
		}
		return Result{Next: st.NextDone, Feedback: st.FeedbackMiss}, nil

	case KindQuestion:
		if digits == RepeatDigit {
			return Result{Next: st.Name, Feedback: "Repeating the question."}, nil
		}
		// any other digit is recorded; out-of-range counts as incorrect and
		// still advances, there is no retry loop in the quiz sub-flow
		correct := digits == st.Question.CorrectDigit()
		if err := sess.RecordAnswer(digits, correct, f.TotalQuestions()); err != nil {
			return Result{}, errors.Wrapf(err, "recording answer at %s", st.Name)
		}
		return Result{Next: st.NextDone}, nil

	case KindWrap:
		switch digits {
		case RepeatDigit:
			sess.ResetQuiz()
			return Result{Next: StateIntro}, nil
		case CaregiverDigit:
			return Result{Next: StateCaregiverCollect}, nil
		default:
			return Result{Next: StateEnd}, nil
		}

	case KindCaregiverCollect:
		sess.CaregiverPhone = null.StringFrom(strings.TrimSuffix(digits, "#"))
		return Result{Next: st.NextDone, Feedback: "Thanks, we will send a short summary now."}, nil

	default:
		return Result{}, errors.Errorf("state %q does not accept digits", st.Name)
	}
}

func questionState(i int) string {
	return fmt.Sprintf("q%d", i+1)
}

func durationMinutes(l lesson.Lesson) int {
	if l.DurationSeconds <= 0 {
		return 3
	}
	m := l.DurationSeconds / 60
	if m < 1 {
		m = 1
	}
	return m
}
