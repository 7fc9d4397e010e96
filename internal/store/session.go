package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Session is a finished exercise session.
type Session struct {
	ID          string        `json:"id"`
	Exercise    string        `json:"exercise"`
	Goal        int           `json:"goal"`
	Count       int           `json:"count"`
	Wrong       int           `json:"wrong"`
	RightCount  int           `json:"right_count"`
	LeftCount   int           `json:"left_count"`
	GoalReached bool          `json:"goal_reached"`
	Duration    time.Duration `json:"-"`
	StartedAt   time.Time     `json:"started_at"`
	StoppedAt   time.Time     `json:"stopped_at"`
}

// SessionRepository provides access to the session log.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, exercise, goal, count, wrong, right_count, left_count,
	goal_reached, duration_ms, started_at, stopped_at`

// Create inserts a finished session.
func (r *SessionRepository) Create(sess *Session) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Exercise, sess.Goal, sess.Count, sess.Wrong,
		sess.RightCount, sess.LeftCount, sess.GoalReached,
		sess.Duration.Milliseconds(), sess.StartedAt.UTC(), sess.StoppedAt.UTC(),
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns sessions, most recent first. A limit of zero or less returns all of them.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

// Count returns the number of recorded sessions.
func (r *SessionRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var durationMS int64

	err := row.Scan(
		&sess.ID, &sess.Exercise, &sess.Goal, &sess.Count, &sess.Wrong,
		&sess.RightCount, &sess.LeftCount, &sess.GoalReached,
		&durationMS, &sess.StartedAt, &sess.StoppedAt,
	)
	if err != nil {
		return nil, err
	}

	sess.Duration = time.Duration(durationMS) * time.Millisecond
	return sess, nil
}
