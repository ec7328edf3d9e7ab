package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kce-spotlight/console/internal/model"
)

// SessionStore persists console sessions. The backend token is stored
// sealed; callers are responsible for sealing and unsealing it.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var u model.User
	err := scanner.Scan(&s.ID, &s.Token, &s.SealedToken, &u.Name, &u.Email, &u.Role, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.User = &u
	return &s, nil
}

const sessionCols = `id, token, sealed_token, user_name, user_email, user_role, expires_at, created_at`

// Create stores a new session under a crypto-random lookup token.
func (s *SessionStore) Create(sealed []byte, user model.User, expiresAt time.Time) (*model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	result, err := s.db.Exec(
		`INSERT INTO console_sessions (token, sealed_token, user_name, user_email, user_role, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		token, sealed, user.Name, user.Email, user.Role, expiresAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM console_sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetByToken returns the live session for token, or nil if expired or unknown.
func (s *SessionStore) GetByToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM console_sessions WHERE token = ? AND expires_at > ?`,
		token, time.Now().UTC(),
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM console_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteByToken(token string) error {
	_, err := s.db.Exec(`DELETE FROM console_sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session by token: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM console_sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
