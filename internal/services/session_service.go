package services

import (
	"database/sql"
	"time"

	"github.com/taskhub-app/taskhub-be/internal/apperror"
)

// SessionServiceProvider defines the interface for session services.
type SessionServiceProvider interface {
	Append(userID, token string, expiresAt time.Time) error
	RemoveOne(userID, token string) error
	RemoveAll(userID string) error
	IsActive(userID, token string) (bool, error)
	PruneExpired() (int64, error)
}

// SessionService manages the per-user set of currently valid tokens.
// Presence of a row is what makes a token usable; deleting the row revokes
// the token even if its signature and expiry would still check out.
type SessionService struct {
	db         *sql.DB
	maxPerUser int
}

// NewSessionService creates a new SessionService. maxPerUser bounds the
// session set per user; zero or negative disables the cap.
func NewSessionService(db *sql.DB, maxPerUser int) *SessionService {
	return &SessionService{db: db, maxPerUser: maxPerUser}
}

// Append records a newly issued token at the end of the user's session
// set. When the cap is exceeded the oldest sessions are evicted, so a
// client stuck in a login loop cannot grow the set without bound.
func (s *SessionService) Append(userID, token string, expiresAt time.Time) error {
	_, err := s.db.Exec(
		"INSERT INTO sessions (user_id, token, expires_at) VALUES (?, ?, ?)",
		userID, token, expiresAt.UTC(),
	)
	if err != nil {
		return apperror.Unavailable(err)
	}

	if s.maxPerUser > 0 {
		_, err = s.db.Exec(`
			DELETE FROM sessions
			WHERE user_id = ? AND id NOT IN (
				SELECT id FROM sessions WHERE user_id = ? ORDER BY id DESC LIMIT ?
			)`, userID, userID, s.maxPerUser)
		if err != nil {
			return apperror.Unavailable(err)
		}
	}
	return nil
}

// RemoveOne revokes a single token. Removing a token that is not in the
// set is a no-op, not an error.
func (s *SessionService) RemoveOne(userID, token string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE user_id = ? AND token = ?", userID, token)
	if err != nil {
		return apperror.Unavailable(err)
	}
	return nil
}

// RemoveAll empties the user's session set.
func (s *SessionService) RemoveAll(userID string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE user_id = ?", userID)
	if err != nil {
		return apperror.Unavailable(err)
	}
	return nil
}

// IsActive reports whether the exact token value is still listed in the
// user's session set.
func (s *SessionService) IsActive(userID, token string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM sessions WHERE user_id = ? AND token = ? LIMIT 1",
		userID, token,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, apperror.Unavailable(err)
	}
	return true, nil
}

// PruneExpired deletes sessions whose recorded expiry has passed and
// returns how many were removed. Purely storage hygiene: verification
// checks expiry on its own and never needs this to have run.
func (s *SessionService) PruneExpired() (int64, error) {
	res, err := s.db.Exec("DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, apperror.Unavailable(err)
	}
	return res.RowsAffected()
}
