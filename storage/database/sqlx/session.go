package sqlxrepos

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/soundsteps/core/session"
)

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sql.DB) *sessionRepository {
	return &sessionRepository{db: sqlx.NewDb(db, "postgres")}
}

// sessionRow carries the answers JSON column that the domain struct keeps as
// a plain slice.
type sessionRow struct {
	session.Session
	AnswersJSON []byte `db:"answers"`
}

func (repo *sessionRepository) toRow(s session.Session) (sessionRow, error) {
	if s.Answers == nil {
		s.Answers = make([]string, 0)
	}
	raw, err := json.Marshal(s.Answers)
	if err != nil {
		return sessionRow{}, errors.Wrap(err, "marshalling answers")
	}
	return sessionRow{Session: s, AnswersJSON: raw}, nil
}

func (row sessionRow) toSession() (session.Session, error) {
	s := row.Session
	s.Answers = make([]string, 0, 4)
	if len(row.AnswersJSON) > 0 {
		if err := json.Unmarshal(row.AnswersJSON, &s.Answers); err != nil {
			return session.Session{}, errors.Wrap(err, "unmarshalling answers")
		}
	}
	return s, nil
}

func (repo *sessionRepository) CreateSession(s session.Session) (session.Session, error) {
	row, err := repo.toRow(s)
	if err != nil {
		return session.Session{}, err
	}
	_, err = repo.db.NamedExec(`
		INSERT INTO session (id, channel, channel_id, learner_phone, lesson_id, current_state,
		                     question_index, answers, score, caregiver_phone, status, started_at, ended_at)
		VALUES (:id, :channel, :channel_id, :learner_phone, :lesson_id, :current_state,
		        :question_index, :answers, :score, :caregiver_phone, :status, :started_at, :ended_at)`,
		row,
	)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "creating session")
	}
	return s, nil
}

func (repo *sessionRepository) UpdateSession(s session.Session) (session.Session, error) {
	row, err := repo.toRow(s)
	if err != nil {
		return session.Session{}, err
	}
	res, err := repo.db.NamedExec(`
		UPDATE session
		SET current_state   = :current_state,
		    question_index  = :question_index,
		    answers         = :answers,
		    score           = :score,
		    caregiver_phone = :caregiver_phone,
		    status          = :status,
		    ended_at        = :ended_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "updating session")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.Session{}, session.ErrNotFound
	}
	return s, nil
}

func (repo *sessionRepository) GetSessionByID(id string) (session.Session, error) {
	var row sessionRow
	err := repo.db.Get(&row, `SELECT * FROM session WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "getting session")
	}
	return row.toSession()
}

func (repo *sessionRepository) GetSessionByChannelID(channel session.Channel, channelID string) (session.Session, error) {
	var row sessionRow
	err := repo.db.Get(&row, `
		SELECT * FROM session
		WHERE channel = $1 AND channel_id = $2
		ORDER BY started_at DESC
		LIMIT 1`,
		channel, channelID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "getting session by channel")
	}
	return row.toSession()
}

func (repo *sessionRepository) QueryRecentSessions(limit int) ([]session.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []sessionRow
	err := repo.db.Select(&rows, `SELECT * FROM session ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		s, err := row.toSession()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
