// Package identity implements the credential backends: Firebase Auth for
// deployments with a project configured, and a local store for everything
// else.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/geofield/worksheet-system/internal/core/domain"
)

const signInEndpoint = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// FirebaseProvider drives Firebase Auth. Account lifecycle goes through the
// Admin SDK; credential verification has no Admin SDK surface and uses the
// Identity Toolkit REST API instead.
type FirebaseProvider struct {
	client *auth.Client
	apiKey string
	http   *http.Client
}

func NewFirebaseProvider(ctx context.Context, credentialsFile, apiKey string) (*FirebaseProvider, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &FirebaseProvider{
		client: client,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// VerifyCredentials signs in with email/password against the Identity
// Toolkit endpoint and returns the subject id. Any rejection from the
// endpoint reads as invalid credentials.
func (p *FirebaseProvider) VerifyCredentials(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return "", fmt.Errorf("verify credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, signInEndpoint+"?key="+p.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("verify credentials: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("verify credentials: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.ErrInvalidCredentials
	}

	var result struct {
		LocalID string `json:"localId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("verify credentials: decode response: %w", err)
	}
	if result.LocalID == "" {
		return "", domain.ErrInvalidCredentials
	}
	return result.LocalID, nil
}

func (p *FirebaseProvider) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	record, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", domain.ErrUserExists
		}
		return "", fmt.Errorf("create account: %w", err)
	}
	return record.UID, nil
}

// EnsureAccount creates the account under a fixed subject id if absent.
func (p *FirebaseProvider) EnsureAccount(ctx context.Context, subjectID, email, password, displayName string) (string, error) {
	if _, err := p.client.GetUser(ctx, subjectID); err == nil {
		return subjectID, nil
	} else if !auth.IsUserNotFound(err) {
		return "", fmt.Errorf("ensure account: lookup: %w", err)
	}

	params := (&auth.UserToCreate{}).
		UID(subjectID).
		Email(email).
		Password(password).
		DisplayName(displayName)

	if _, err := p.client.CreateUser(ctx, params); err != nil {
		// A concurrent bootstrap may have won the creation.
		if auth.IsUIDAlreadyExists(err) || auth.IsEmailAlreadyExists(err) {
			return subjectID, nil
		}
		return "", fmt.Errorf("ensure account: create: %w", err)
	}
	return subjectID, nil
}

func (p *FirebaseProvider) DeleteAccount(ctx context.Context, subjectID string) error {
	if err := p.client.DeleteUser(ctx, subjectID); err != nil {
		if auth.IsUserNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// UpdatePassword re-authenticates with the current password, then replaces it
// through the Admin SDK.
func (p *FirebaseProvider) UpdatePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	subjectID, err := p.VerifyCredentials(ctx, email, currentPassword)
	if err != nil {
		return err
	}

	update := (&auth.UserToUpdate{}).Password(newPassword)
	if _, err := p.client.UpdateUser(ctx, subjectID, update); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
