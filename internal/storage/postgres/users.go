package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	const query = `INSERT INTO users (id, username, email, password_hash, created_at)
	VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
	return err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *Store) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserTaken(ctx context.Context, username, email string) (bool, error) {
	const query = `SELECT 1 FROM users WHERE username = $1 OR email = $2 LIMIT 1`

	var one int
	err := s.db.QueryRowContext(ctx, query, username, email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) UpdateUsername(ctx context.Context, userID, username string) error {
	const query = `UPDATE users SET username = $2 WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, userID, username)
	if err != nil {
		return err
	}
	return oneRow(res, "user not found")
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2 WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, userID, passwordHash)
	if err != nil {
		return err
	}
	return oneRow(res, "user not found")
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	// Accounts and their transactions cascade via foreign keys.
	const query = `DELETE FROM users WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}
	return oneRow(res, "user not found")
}
