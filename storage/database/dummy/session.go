package dummydb

import (
	"sort"

	"github.com/trezcool/soundsteps/core/session"
)

type sessionRepository struct {
	db *sessionTable
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db.session}
}

func copySession(s session.Session) session.Session {
	answers := make([]string, len(s.Answers))
	copy(answers, s.Answers)
	s.Answers = answers
	return s
}

func (repo *sessionRepository) CreateSession(s session.Session) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored := copySession(s)
	repo.db.table[s.ID] = &stored
	return s, nil
}

func (repo *sessionRepository) UpdateSession(s session.Session) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[s.ID]; !ok {
		return session.Session{}, session.ErrNotFound
	}
	stored := copySession(s)
	repo.db.table[s.ID] = &stored
	return s, nil
}

func (repo *sessionRepository) GetSessionByID(id string) (session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return copySession(*s), nil
	}
	return session.Session{}, session.ErrNotFound
}

// GetSessionByChannelID returns the most recently started session for a
// conversation key, matching the "latest wins" rule for reused call IDs.
func (repo *sessionRepository) GetSessionByChannelID(channel session.Channel, channelID string) (session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var found *session.Session
	for _, s := range repo.db.table {
		if s.Channel != channel || s.ChannelID != channelID {
			continue
		}
		if found == nil || s.StartedAt.After(found.StartedAt) {
			found = s
		}
	}
	if found == nil {
		return session.Session{}, session.ErrNotFound
	}
	return copySession(*found), nil
}

func (repo *sessionRepository) QueryRecentSessions(limit int) ([]session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]session.Session, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		sessions = append(sessions, copySession(*s))
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartedAt.After(sessions[j].StartedAt) })
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}
