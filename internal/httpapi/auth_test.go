package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"momostation/backend/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  "admin123",
				Role:      domain.RoleAdmin,
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}

	manager := NewAuthManager("test-secret", time.Hour, store)
	_, err := manager.Login(domain.LoginRequest{
		Username: "admin",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].Password == "admin123" {
		t.Fatalf("expected password to be upgraded from plain-text")
	}
	if !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", users[0].Password)
	}
}

func TestTokenCarriesRoleAndStation(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"manager": {
				Username:    "manager",
				Password:    "manager123",
				Role:        domain.RoleStoreManager,
				StationName: "indiranagar",
				Active:      true,
				CreatedAt:   time.Now().UTC(),
			},
		},
	}

	manager := NewAuthManager("test-secret", time.Hour, store)
	resp, err := manager.Login(domain.LoginRequest{
		Username: "manager",
		Password: "manager123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.StationName != "indiranagar" {
		t.Fatalf("expected station in login response, got %q", resp.StationName)
	}

	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "manager" {
		t.Fatalf("unexpected actor username %q", actor.Username)
	}
	if actor.Role != domain.RoleStoreManager {
		t.Fatalf("unexpected actor role %q", actor.Role)
	}
	if actor.StationName != "indiranagar" {
		t.Fatalf("unexpected actor station %q", actor.StationName)
	}
}

func TestCreateUserStoresPasswordHash(t *testing.T) {
	store := &userStoreStub{users: map[string]domain.UserAccount{}}
	manager := NewAuthManager("test-secret", time.Hour, store)

	user, err := manager.CreateUser(domain.UserCreateRequest{
		Username:    "newmanager",
		Password:    "pass1234",
		Role:        domain.RoleStoreManager,
		StationName: "Koramangala",
	})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if user.Username != "newmanager" {
		t.Fatalf("unexpected username %s", user.Username)
	}
	if user.StationName != "koramangala" {
		t.Fatalf("expected lowercased station, got %q", user.StationName)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	var found *domain.UserAccount
	for i := range users {
		if users[i].Username == "newmanager" {
			found = &users[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("expected user to be saved")
	}
	if found.Password == "pass1234" {
		t.Fatalf("expected user password to be hashed")
	}
	if !strings.HasPrefix(found.Password, "$2") {
		t.Fatalf("expected bcrypt hash prefix, got %s", found.Password)
	}

	_, err = manager.Login(domain.LoginRequest{
		Username: "newmanager",
		Password: "pass1234",
	})
	if err != nil {
		t.Fatalf("login with created user failed: %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, &userStoreStub{})

	cases := []struct {
		name string
		req  domain.UserCreateRequest
	}{
		{"short username", domain.UserCreateRequest{Username: "ab", Password: "pass1234", Role: domain.RoleAdmin}},
		{"short password", domain.UserCreateRequest{Username: "someone", Password: "123", Role: domain.RoleAdmin}},
		{"bad role", domain.UserCreateRequest{Username: "someone", Password: "pass1234", Role: "CASHIER"}},
		{"manager without station", domain.UserCreateRequest{Username: "someone", Password: "pass1234", Role: domain.RoleStoreManager}},
	}
	for _, tc := range cases {
		if _, err := manager.CreateUser(tc.req); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  "admin123",
				Role:      domain.RoleAdmin,
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}

	issuer := NewAuthManager("secret-one", time.Hour, store)
	verifier := NewAuthManager("secret-two", time.Hour, store)

	resp, err := issuer.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with different secret to be rejected")
	}
}
