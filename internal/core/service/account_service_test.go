package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
)

func testRoot() RootAccount {
	return RootAccount{
		SubjectID: "root-bootstrap-user",
		Email:     "root@system.local",
		Password:  "Root123!",
		Name:      "System Root",
	}
}

func newAccountService(users *stubUserRepo, sessions *stubSessionStore, identity *stubIdentity) *AccountService {
	return NewAccountService(users, sessions, identity, testRoot(), zerolog.Nop())
}

func registerInput(username string) ports.RegisterInput {
	return ports.RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Name:            "User " + username,
		Telephone:       "+351911111111",
		Password:        "abc12345",
		ConfirmPassword: "abc12345",
	}
}

func TestRegister_CreatesInactiveEndUser(t *testing.T) {
	users, sessions, identity := newStubUserRepo(), newStubSessionStore(), newStubIdentity()
	svc := newAccountService(users, sessions, identity)

	user, err := svc.Register(context.Background(), registerInput("a"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Role != domain.RoleEndUser {
		t.Errorf("role = %s, want ENDUSER", user.Role)
	}
	if user.Status != domain.StatusInactive {
		t.Errorf("status = %s, want INACTIVE", user.Status)
	}
	if user.ID == "" {
		t.Error("no provider subject id assigned")
	}
}

func TestRegister_PasswordPolicy(t *testing.T) {
	svc := newAccountService(newStubUserRepo(), newStubSessionStore(), newStubIdentity())

	cases := []struct {
		pwd  string
		want error
	}{
		{"short1", ErrPasswordPolicy},      // too short
		{"onlyletters", ErrPasswordPolicy}, // no digit
		{"12345678", ErrPasswordPolicy},    // no letter
		{"abc12345", nil},
	}
	for i, tc := range cases {
		in := registerInput("u" + strconv.Itoa(i))
		in.Password, in.ConfirmPassword = tc.pwd, tc.pwd
		_, err := svc.Register(context.Background(), in)
		if !errors.Is(err, tc.want) {
			t.Errorf("password %q: got %v, want %v", tc.pwd, err, tc.want)
		}
	}
}

func TestRegister_ConfirmMismatch(t *testing.T) {
	svc := newAccountService(newStubUserRepo(), newStubSessionStore(), newStubIdentity())
	in := registerInput("a")
	in.ConfirmPassword = "different1"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrPasswordMatch) {
		t.Errorf("got %v, want ErrPasswordMatch", err)
	}
}

func TestRegister_MissingRequired(t *testing.T) {
	svc := newAccountService(newStubUserRepo(), newStubSessionStore(), newStubIdentity())
	in := registerInput("a")
	in.Telephone = ""
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrMissingRequired) {
		t.Errorf("got %v, want ErrMissingRequired", err)
	}
}

func TestRegister_CapExcludesRoot(t *testing.T) {
	users := newStubUserRepo()
	users.add(domain.User{ID: "root-bootstrap-user", Username: domain.RootUsername, Role: domain.RoleAdmin, Status: domain.StatusActive})
	svc := newAccountService(users, newStubSessionStore(), newStubIdentity())

	for i := 0; i < domain.MaxNonRootAccounts; i++ {
		if _, err := svc.Register(context.Background(), registerInput("u"+strconv.Itoa(i))); err != nil {
			t.Fatalf("register %d failed: %v", i, err)
		}
	}
	if _, err := svc.Register(context.Background(), registerInput("overflow")); !errors.Is(err, domain.ErrRegistrationClosed) {
		t.Errorf("fifth non-root registration: got %v, want ErrRegistrationClosed", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	users, sessions, identity := newStubUserRepo(), newStubSessionStore(), newStubIdentity()
	users.add(domain.User{Username: "alice", Email: "alice@example.com", Role: domain.RoleEndUser})
	svc := newAccountService(users, sessions, identity)

	in := registerInput("alice")
	in.Email = "alice.second@example.com"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("got %v, want ErrUserExists", err)
	}
	// The provider must not have been asked for an account.
	if _, ok := identity.credentials[in.Email]; ok {
		t.Error("provider account created for a duplicate username")
	}
}

func TestRegister_ReservedUsername(t *testing.T) {
	svc := newAccountService(newStubUserRepo(), newStubSessionStore(), newStubIdentity())
	if _, err := svc.Register(context.Background(), registerInput(domain.RootUsername)); !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("got %v, want ErrUserExists", err)
	}
}

func TestLogin_FullActivationFlow(t *testing.T) {
	users, sessions, identity := newStubUserRepo(), newStubSessionStore(), newStubIdentity()
	svc := newAccountService(users, sessions, identity)

	user, err := svc.Register(context.Background(), registerInput("a"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Before activation the account may not log in even with good credentials.
	if _, err := svc.Login(context.Background(), "a@example.com", "abc12345"); !errors.Is(err, domain.ErrAccountInactive) {
		t.Fatalf("pre-activation login: got %v, want ErrAccountInactive", err)
	}

	// Staff toggles the account to ACTIVE.
	if err := users.SetStatus(context.Background(), user.ID, domain.StatusActive); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	session, err := svc.Login(context.Background(), "a@example.com", "abc12345")
	if err != nil {
		t.Fatalf("post-activation login failed: %v", err)
	}
	if session.UserID != user.ID || session.Role != domain.RoleEndUser {
		t.Errorf("unexpected session identity: %+v", session)
	}
	if session.Token.Verifier == "" {
		t.Error("session token has no verifier")
	}
	if got := session.Token.ExpiresAt.Sub(session.Token.IssuedAt); got != domain.SessionTTL {
		t.Errorf("validity window = %v, want %v", got, domain.SessionTTL)
	}
	if _, err := sessions.Find(context.Background(), session.ID); err != nil {
		t.Errorf("session not stored: %v", err)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := newAccountService(newStubUserRepo(), newStubSessionStore(), newStubIdentity())
	if _, err := svc.Login(context.Background(), "ghost@example.com", "whatever1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("got %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_ProfileMissing(t *testing.T) {
	users, sessions, identity := newStubUserRepo(), newStubSessionStore(), newStubIdentity()
	// Credentials exist at the provider but no profile record is stored.
	_, _ = identity.CreateAccount(context.Background(), "orphan@example.com", "abc12345", "Orphan")
	svc := newAccountService(users, sessions, identity)

	if _, err := svc.Login(context.Background(), "orphan@example.com", "abc12345"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("got %v, want ErrInvalidCredentials", err)
	}
}

func TestLogout_DestroysSession(t *testing.T) {
	users, sessions, identity := newStubUserRepo(), newStubSessionStore(), newStubIdentity()
	svc := newAccountService(users, sessions, identity)

	user, _ := svc.Register(context.Background(), registerInput("a"))
	_ = users.SetStatus(context.Background(), user.ID, domain.StatusActive)
	session, err := svc.Login(context.Background(), "a@example.com", "abc12345")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := svc.Logout(context.Background(), session.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := sessions.Find(context.Background(), session.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("session still present after logout: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	users, sessions, identity := newStubUserRepo(), newStubSessionStore(), newStubIdentity()
	svc := newAccountService(users, sessions, identity)
	_, _ = svc.Register(context.Background(), registerInput("a"))

	// Wrong current password surfaces as the single authentication error.
	err := svc.ChangePassword(context.Background(), "a@example.com", "wrongpass1", "newpass99", "newpass99")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("got %v, want ErrInvalidCredentials", err)
	}

	if err := svc.ChangePassword(context.Background(), "a@example.com", "abc12345", "newpass99", "newpass99"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if identity.credentials["a@example.com"] != "newpass99" {
		t.Error("provider password not updated")
	}

	// New password must satisfy the policy.
	err = svc.ChangePassword(context.Background(), "a@example.com", "newpass99", "short", "short")
	if !errors.Is(err, ErrPasswordPolicy) {
		t.Errorf("got %v, want ErrPasswordPolicy", err)
	}
}

func TestEnsureRoot_Idempotent(t *testing.T) {
	users, sessions, identity := newStubUserRepo(), newStubSessionStore(), newStubIdentity()
	svc := newAccountService(users, sessions, identity)

	for i := 0; i < 3; i++ {
		if err := svc.EnsureRoot(context.Background()); err != nil {
			t.Fatalf("EnsureRoot run %d failed: %v", i, err)
		}
	}

	root, err := users.FindByID(context.Background(), "root-bootstrap-user")
	if err != nil {
		t.Fatalf("root profile missing: %v", err)
	}
	if root.Username != domain.RootUsername || root.Role != domain.RoleAdmin || root.Status != domain.StatusActive {
		t.Errorf("unexpected root profile: %+v", root)
	}

	n, _ := users.CountNonRoot(context.Background())
	if n != 0 {
		t.Errorf("root counted as a non-root account: %d", n)
	}
}
