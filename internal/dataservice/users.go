package dataservice

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/mrlokans/lessonstore/internal/auth"
	"github.com/mrlokans/lessonstore/internal/entities"
	"github.com/mrlokans/lessonstore/internal/scalarstore"
)

// RegisterInput describes a new account. Role defaults to student; students
// must name a class.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     entities.UserRole
	Class    entities.ClassLevel
}

// ProfilePatch changes the fields that are set.
type ProfilePatch struct {
	Name  *string
	Email *string
	Class *entities.ClassLevel
}

func (s *Service) loadUsers() (entities.UserTable, error) {
	return scalarstore.Get(s.scalar, entities.KVKeyUsers, entities.UserTable{})
}

func validateClass(role entities.UserRole, class entities.ClassLevel) error {
	if class == "" {
		if role == entities.UserRoleStudent {
			return fmt.Errorf("%w: students need a class", ErrValidation)
		}
		return nil
	}
	if !class.Valid() {
		return fmt.Errorf("%w: unknown class %q", ErrValidation, class)
	}
	return nil
}

func (s *Service) validatePassword(password string) error {
	if err := s.passwords.Validate(password); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// decoy returns a hash at the configured cost for unknown emails to be
// checked against, so that they take as long as a wrong password.
func (s *Service) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.passwords.HashUnchecked(uuid.NewString())
		if err != nil {
			log.Printf("Failed to build decoy password hash: %v", err)
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}

// Authenticate checks credentials and returns the account without its
// password. Unknown emails and wrong passwords both yield
// ErrInvalidCredentials; a disabled account yields ErrAccountDisabled once
// the password has been verified.
func (s *Service) Authenticate(email, password string) (*entities.User, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}

	idx := users.IndexByEmail(email)
	if idx < 0 {
		_ = s.passwords.Check(password, s.decoy())
		return nil, ErrInvalidCredentials
	}
	user := users[idx]
	if err := s.passwords.Check(password, user.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	public := user.Public()
	return &public, nil
}

// Register creates an active account. Fails with ErrDuplicateKey when the
// email is taken, compared case-insensitively, leaving the table unchanged.
func (s *Service) Register(in RegisterInput) (*entities.User, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	email := strings.TrimSpace(in.Email)
	if err := auth.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	role := in.Role
	if role == "" {
		role = entities.UserRoleStudent
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if err := validateClass(role, in.Class); err != nil {
		return nil, err
	}
	if err := s.validatePassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	if users.IndexByEmail(email) >= 0 {
		return nil, fmt.Errorf("email %s: %w", email, ErrDuplicateKey)
	}

	user := entities.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Password:  hash,
		Role:      role,
		Class:     in.Class,
		Status:    entities.UserStatusActive,
		CreatedAt: s.now().UTC(),
	}
	if err := s.scalar.Set(entities.KVKeyUsers, append(users, user)); err != nil {
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

// GetUser returns one account without its password.
func (s *Service) GetUser(id string) (*entities.User, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	idx := users.IndexByID(id)
	if idx < 0 {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	public := users[idx].Public()
	return &public, nil
}

// ListUsers returns every account without passwords.
func (s *Service) ListUsers() ([]entities.User, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	out := make([]entities.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

// mutateUser runs fn on the stored user under the users lane and persists
// the table when fn succeeds.
func (s *Service) mutateUser(id string, fn func(users entities.UserTable, user *entities.User) error) (*entities.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	idx := users.IndexByID(id)
	if idx < 0 {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err := fn(users, &users[idx]); err != nil {
		return nil, err
	}
	if err := s.scalar.Set(entities.KVKeyUsers, users); err != nil {
		return nil, err
	}
	public := users[idx].Public()
	return &public, nil
}

// UpdateProfile changes name, email or class. A new email must not belong to
// another account.
func (s *Service) UpdateProfile(id string, patch ProfilePatch) (*entities.User, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	return s.mutateUser(id, func(users entities.UserTable, user *entities.User) error {
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return fmt.Errorf("%w: name is required", ErrValidation)
			}
			user.Name = name
		}
		if patch.Email != nil {
			email := strings.TrimSpace(*patch.Email)
			if err := auth.ValidateEmail(email); err != nil {
				return fmt.Errorf("%w: %w", ErrValidation, err)
			}
			if idx := users.IndexByEmail(email); idx >= 0 && users[idx].ID != user.ID {
				return fmt.Errorf("email %s: %w", email, ErrDuplicateKey)
			}
			user.Email = email
		}
		if patch.Class != nil {
			if err := validateClass(user.Role, *patch.Class); err != nil {
				return err
			}
			user.Class = *patch.Class
		}
		return nil
	})
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(id, current, next string) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if err := s.validatePassword(next); err != nil {
		return err
	}
	hash, err := s.passwords.Hash(next)
	if err != nil {
		return err
	}

	_, err = s.mutateUser(id, func(_ entities.UserTable, user *entities.User) error {
		if err := s.passwords.Check(current, user.Password); err != nil {
			if errors.Is(err, auth.ErrInvalidPassword) {
				return ErrInvalidCredentials
			}
			return err
		}
		user.Password = hash
		return nil
	})
	return err
}

// SetUserStatus enables or disables an account.
func (s *Service) SetUserStatus(id string, status entities.UserStatus) (*entities.User, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	user, err := s.mutateUser(id, func(_ entities.UserTable, user *entities.User) error {
		user.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.LogUserStatus(id, status)
	return user, nil
}

// DeleteUser removes an account together with its completion set and
// progress map.
func (s *Service) DeleteUser(id string) error {
	if err := s.checkReady(); err != nil {
		return err
	}

	s.usersMu.Lock()
	users, err := s.loadUsers()
	if err != nil {
		s.usersMu.Unlock()
		return err
	}
	idx := users.IndexByID(id)
	if idx < 0 {
		s.usersMu.Unlock()
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	remaining := append(users[:idx:idx], users[idx+1:]...)
	err = s.scalar.Set(entities.KVKeyUsers, remaining)
	s.usersMu.Unlock()
	if err != nil {
		return err
	}

	if err := s.clearWatchState(id); err != nil {
		return fmt.Errorf("clear watch state for %s: %w", id, err)
	}
	s.audit.LogDelete("user", []string{id})
	return nil
}
