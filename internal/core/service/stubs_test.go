package service

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/geofield/worksheet-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stubs shared by the service tests
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) add(u domain.User) *domain.User {
	if u.ID == "" {
		r.seq++
		u.ID = "uid-" + strconv.Itoa(r.seq)
	}
	clone := u
	r.users[clone.ID] = &clone
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range r.users {
		if u.ID == user.ID || u.Username == user.Username {
			return domain.ErrUserExists
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) CountNonRoot(_ context.Context) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Username != domain.RootUsername {
			n++
		}
	}
	return n, nil
}

func (r *stubUserRepo) UpdateFields(_ context.Context, id string, fields map[string]string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	for name, value := range fields {
		switch name {
		case "name":
			u.Name = value
		case "telephone":
			u.Telephone = value
		case "occupation":
			u.Occupation = value
		case "workplace":
			u.Workplace = value
		case "address":
			u.Address = value
		case "postal_code":
			u.PostalCode = value
		case "tax_id":
			u.TaxID = value
		case "photo":
			u.Photo = value
		case "profile":
			u.Profile = domain.Visibility(value)
		}
	}
	return nil
}

func (r *stubUserRepo) SetRole(_ context.Context, id string, role domain.Role) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (r *stubUserRepo) SetStatus(_ context.Context, id string, status domain.Status) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Status = status
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type stubSessionStore struct {
	sessions map[string]*domain.Session
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *stubSessionStore) Save(_ context.Context, sess *domain.Session) error {
	clone := *sess
	s.sessions[sess.ID] = &clone
	return nil
}

func (s *stubSessionStore) Find(_ context.Context, id string) (*domain.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	clone := *sess
	return &clone, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubSessionStore) DeleteByUser(_ context.Context, userID string) error {
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

// stubIdentity is an in-memory identity provider keyed by email.
type stubIdentity struct {
	credentials map[string]string // email -> password
	subjects    map[string]string // email -> subject id
	seq         int
	createErr   error
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{
		credentials: make(map[string]string),
		subjects:    make(map[string]string),
	}
}

func (p *stubIdentity) VerifyCredentials(_ context.Context, email, password string) (string, error) {
	pwd, ok := p.credentials[email]
	if !ok || pwd != password {
		return "", domain.ErrInvalidCredentials
	}
	return p.subjects[email], nil
}

func (p *stubIdentity) CreateAccount(_ context.Context, email, password, _ string) (string, error) {
	if p.createErr != nil {
		return "", p.createErr
	}
	if _, exists := p.credentials[email]; exists {
		return "", domain.ErrUserExists
	}
	p.seq++
	id := "subject-" + strconv.Itoa(p.seq)
	p.credentials[email] = password
	p.subjects[email] = id
	return id, nil
}

func (p *stubIdentity) EnsureAccount(_ context.Context, subjectID, email, password, _ string) (string, error) {
	if existing, ok := p.subjects[email]; ok {
		return existing, nil
	}
	p.credentials[email] = password
	p.subjects[email] = subjectID
	return subjectID, nil
}

func (p *stubIdentity) DeleteAccount(_ context.Context, subjectID string) error {
	for email, id := range p.subjects {
		if id == subjectID {
			delete(p.subjects, email)
			delete(p.credentials, email)
			return nil
		}
	}
	return errors.New("subject not found")
}

func (p *stubIdentity) UpdatePassword(_ context.Context, email, currentPassword, newPassword string) error {
	pwd, ok := p.credentials[email]
	if !ok || pwd != currentPassword {
		return domain.ErrInvalidCredentials
	}
	p.credentials[email] = newPassword
	return nil
}
