package lesson

import "errors"

var ErrNotFound = errors.New("lesson not found")

const optionDigits = "1234"
const optionLetters = "ABCD"

type (
	// Question is a single multiple-choice quiz question. Options has a fixed
	// cardinality of four; CorrectIndex is the 0-based index into Options.
	Question struct {
		Text         string   `json:"text"`
		Options      []string `json:"options"`
		CorrectIndex int      `json:"correct_index"`
	}

	// Lesson is the unit of content delivered over voice or SMS.
	// Concept/Practice/Example feed the voice teaching script; lessons that
	// leave them empty still work, the flow skips straight to the quiz.
	Lesson struct {
		ID              string     `json:"id"`
		Title           string     `json:"title"`
		Description     string     `json:"description"`
		Concept         string     `json:"concept"`
		Practice        string     `json:"practice"`
		Example         *Question  `json:"example,omitempty"`
		Questions       []Question `json:"questions"`
		DurationSeconds int        `json:"duration_seconds"`
	}

	// Repository is the read-only lesson storage contract; lesson authoring
	// lives in the teacher-facing CRUD service, not here.
	Repository interface {
		GetLessonByID(id string) (Lesson, error)
	}
)

// CorrectDigit returns the keypad digit ("1".."4") matching the correct option.
func (q Question) CorrectDigit() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(optionDigits) {
		return ""
	}
	return string(optionDigits[q.CorrectIndex])
}

// CorrectLetter returns the answer letter ("A".."D") matching the correct option.
func (q Question) CorrectLetter() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(optionLetters) {
		return ""
	}
	return string(optionLetters[q.CorrectIndex])
}
