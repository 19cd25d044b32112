package sqlxrepos

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/soundsteps/core/lesson"
)

type lessonRepository struct {
	db *sqlx.DB
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *sql.DB) *lessonRepository {
	return &lessonRepository{db: sqlx.NewDb(db, "postgres")}
}

type lessonRow struct {
	ID              string `db:"id"`
	Title           string `db:"title"`
	Description     string `db:"description"`
	Concept         string `db:"concept"`
	Practice        string `db:"practice"`
	ExampleJSON     []byte `db:"example"`
	QuestionsJSON   []byte `db:"questions"`
	DurationSeconds int    `db:"duration_seconds"`
}

func (row lessonRow) toLesson() (lesson.Lesson, error) {
	l := lesson.Lesson{
		ID:              row.ID,
		Title:           row.Title,
		Description:     row.Description,
		Concept:         row.Concept,
		Practice:        row.Practice,
		DurationSeconds: row.DurationSeconds,
	}
	if len(row.ExampleJSON) > 0 {
		var ex lesson.Question
		if err := json.Unmarshal(row.ExampleJSON, &ex); err != nil {
			return lesson.Lesson{}, errors.Wrap(err, "unmarshalling example")
		}
		l.Example = &ex
	}
	if err := json.Unmarshal(row.QuestionsJSON, &l.Questions); err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "unmarshalling questions")
	}
	return l, nil
}

func (repo *lessonRepository) GetLessonByID(id string) (lesson.Lesson, error) {
	var row lessonRow
	err := repo.db.Get(&row, `
		SELECT id, title, description, concept, practice, example, questions, duration_seconds
		FROM lesson WHERE id = $1`,
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lesson.Lesson{}, lesson.ErrNotFound
		}
		return lesson.Lesson{}, errors.Wrap(err, "getting lesson")
	}
	return row.toLesson()
}

// SaveLesson upserts lesson content; used by the seed command.
func (repo *lessonRepository) SaveLesson(l lesson.Lesson) error {
	var exampleJSON []byte
	if l.Example != nil {
		raw, err := json.Marshal(l.Example)
		if err != nil {
			return errors.Wrap(err, "marshalling example")
		}
		exampleJSON = raw
	}
	questionsJSON, err := json.Marshal(l.Questions)
	if err != nil {
		return errors.Wrap(err, "marshalling questions")
	}

	_, err = repo.db.Exec(`
		INSERT INTO lesson (id, title, description, concept, practice, example, questions, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET title            = EXCLUDED.title,
		    description      = EXCLUDED.description,
		    concept          = EXCLUDED.concept,
		    practice         = EXCLUDED.practice,
		    example          = EXCLUDED.example,
		    questions        = EXCLUDED.questions,
		    duration_seconds = EXCLUDED.duration_seconds`,
		l.ID, l.Title, l.Description, l.Concept, l.Practice, exampleJSON, questionsJSON, l.DurationSeconds,
	)
	return errors.Wrap(err, "saving lesson")
}
