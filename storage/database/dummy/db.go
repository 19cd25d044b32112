package dummydb

import (
	"sync"

	"github.com/trezcool/soundsteps/core/lesson"
	"github.com/trezcool/soundsteps/core/session"
)

type (
	DB struct {
		session *sessionTable
		lesson  *lessonTable
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*session.Session
	}

	lessonTable struct {
		sync.RWMutex
		table map[string]*lesson.Lesson
	}
)

func Open() (*DB, error) {
	db := &DB{
		session: &sessionTable{table: make(map[string]*session.Session)},
		lesson:  &lessonTable{table: make(map[string]*lesson.Lesson)},
	}
	return db, nil
}
