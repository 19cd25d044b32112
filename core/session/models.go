package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrAlreadyEnded = errors.New("session already ended")
	ErrQuizFull     = errors.New("all quiz answers already recorded")
)

type Channel string

const (
	ChannelVoice Channel = "voice"
	ChannelSMS   Channel = "sms"
)

type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusAbandoned  Status = "abandoned"
)

// Session is one learner's pass through a lesson over either channel.
// CurrentState is the voice engine's resumption point; QuestionIndex is the
// SMS engine's (-1 meaning not yet started). Answers is append-only and Score
// is monotonically non-decreasing while the session is in progress.
type Session struct {
	ID             string      `json:"id" db:"id"`
	Channel        Channel     `json:"channel" db:"channel"`
	ChannelID      string      `json:"channel_id" db:"channel_id"`
	LearnerPhone   string      `json:"learner_phone" db:"learner_phone"`
	LessonID       string      `json:"lesson_id" db:"lesson_id"`
	CurrentState   string      `json:"current_state" db:"current_state"`
	QuestionIndex  int         `json:"question_index" db:"question_index"`
	Answers        []string    `json:"answers" db:"-"`
	Score          int         `json:"score" db:"score"`
	CaregiverPhone null.String `json:"caregiver_phone" db:"caregiver_phone"`
	Status         Status      `json:"status" db:"status"`
	StartedAt      time.Time   `json:"started_at" db:"started_at"`
	EndedAt        null.Time   `json:"ended_at" db:"ended_at"`
}

func New(channel Channel, channelID, learnerPhone, lessonID string) Session {
	return Session{
		ID:            uuid.New().String(),
		Channel:       channel,
		ChannelID:     channelID,
		LearnerPhone:  learnerPhone,
		LessonID:      lessonID,
		CurrentState:  "intro",
		QuestionIndex: -1,
		Answers:       make([]string, 0, 4),
		Status:        StatusInProgress,
		StartedAt:     time.Now().UTC(),
	}
}

func (s *Session) IsTerminal() bool {
	return s.Status != StatusInProgress
}

// RecordAnswer appends an answer token and bumps the score when correct.
// totalQuestions caps the answers slice; overflowing it means the caller's
// flow definition and the lesson disagree.
func (s *Session) RecordAnswer(token string, correct bool, totalQuestions int) error {
	if s.IsTerminal() {
		return ErrAlreadyEnded
	}
	if len(s.Answers) >= totalQuestions {
		return ErrQuizFull
	}
	s.Answers = append(s.Answers, token)
	if correct {
		s.Score++
	}
	return nil
}

// ResetQuiz clears accumulated answers for a lesson restart (digit 9 at wrap).
func (s *Session) ResetQuiz() {
	s.Answers = s.Answers[:0]
	s.Score = 0
}

// End moves the session to a terminal status. Status only transitions
// forward and EndedAt is set exactly once.
func (s *Session) End(status Status, at time.Time) error {
	if s.IsTerminal() {
		return ErrAlreadyEnded
	}
	if status == StatusInProgress {
		return errors.New("cannot end a session with a non-terminal status")
	}
	s.Status = status
	s.EndedAt = null.TimeFrom(at.UTC())
	return nil
}

// Repository is the session storage contract. The core depends on
// read-after-write consistency within a single process.
type Repository interface {
	CreateSession(s Session) (Session, error)
	UpdateSession(s Session) (Session, error)
	GetSessionByID(id string) (Session, error)
	GetSessionByChannelID(channel Channel, channelID string) (Session, error)
	QueryRecentSessions(limit int) ([]Session, error)
}
