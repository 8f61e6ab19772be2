package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careregistry/careregistry/internal/platform/auth"
)

// -- Mock Repository --

type mockRepo struct {
	users map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return ErrDuplicateUsername
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// -- Tests --

func newTestService() *Service {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewService(newMockRepo(), issuer)
}

func TestRegister(t *testing.T) {
	svc := newTestService()
	session, err := svc.Register(context.Background(), " Nurse.Joy ", "correct-horse", "nurse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Username != "nurse.joy" {
		t.Errorf("expected normalised username, got %s", session.Username)
	}
	if session.Role != "nurse" {
		t.Errorf("role = %s, want nurse", session.Role)
	}
	if session.Token == "" {
		t.Error("expected a token")
	}
	if session.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Register(context.Background(), "frontdesk", "correct-horse", "receptionist"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Register(context.Background(), "frontdesk", "another-pass", "nurse")
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestRegister_InvalidRole(t *testing.T) {
	svc := newTestService()
	_, err := svc.Register(context.Background(), "frontdesk", "correct-horse", "janitor")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	svc := newTestService()
	_, err := svc.Register(context.Background(), "frontdesk", "short", "nurse")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Register(context.Background(), "drhouse", "correct-horse", "doctor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := svc.Login(context.Background(), "DrHouse", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Role != "doctor" {
		t.Errorf("role = %s, want doctor", session.Role)
	}
	if session.Token == "" {
		t.Error("expected a token")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Register(context.Background(), "drhouse", "correct-horse", "doctor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Login(context.Background(), "drhouse", "battery-staple")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newTestService()
	_, err := svc.Login(context.Background(), "ghost", "whatever1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	svc := newTestService()
	session, err := svc.Register(context.Background(), "frontdesk", "correct-horse", "receptionist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u, err := svc.Profile(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Username != "frontdesk" {
		t.Errorf("username = %s, want frontdesk", u.Username)
	}
	if u.PasswordHash == "" {
		t.Error("expected stored hash on the domain record")
	}
}
