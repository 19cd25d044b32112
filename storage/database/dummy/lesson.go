package dummydb

import (
	"github.com/trezcool/soundsteps/core/lesson"
)

type lessonRepository struct {
	db *lessonTable
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

// NewLessonRepository returns an in-memory lesson store preloaded with the
// built-in fixtures.
func NewLessonRepository(db *DB) *lessonRepository {
	repo := &lessonRepository{db: db.lesson}
	for _, l := range lesson.Fixtures() {
		repo.SaveLesson(l)
	}
	return repo
}

func (repo *lessonRepository) SaveLesson(l lesson.Lesson) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[l.ID] = &l
}

func (repo *lessonRepository) GetLessonByID(id string) (lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if l, ok := repo.db.table[id]; ok {
		return *l, nil
	}
	return lesson.Lesson{}, lesson.ErrNotFound
}
