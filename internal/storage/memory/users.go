package memory

import (
	"context"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	copied := u
	return &copied, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (s *Store) UserTaken(ctx context.Context, username, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateUsername(ctx context.Context, userID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.Username = username
	s.users[userID] = u
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.PasswordHash = passwordHash
	s.users[userID] = u
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return apperr.NotFound("user not found")
	}
	delete(s.users, userID)
	for id, acc := range s.accounts {
		if acc.UserID == userID {
			// deleteAccountLocked cascades to the account's transactions.
			_ = s.deleteAccountLocked(userID, id)
		}
	}
	return nil
}
