package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/geofield/worksheet-system/internal/core/domain"
)

const (
	collectionCredentials = "credentials"
	localTimeout          = 10 * time.Second
)

type credentialRecord struct {
	SubjectID    string `bson:"_id"`
	Email        string `bson:"email"`
	PasswordHash []byte `bson:"password_hash"`
}

// LocalProvider keeps credentials in the application's own database,
// passwords hashed with bcrypt. Used when no Firebase project is configured.
type LocalProvider struct {
	col *mongo.Collection
}

func NewLocalProvider(db *mongo.Database) *LocalProvider {
	return &LocalProvider{col: db.Collection(collectionCredentials)}
}

func (p *LocalProvider) VerifyCredentials(ctx context.Context, email, password string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, localTimeout)
	defer cancel()

	var rec credentialRecord
	err := p.col.FindOne(ctx, bson.M{"email": email}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("verify credentials: %w", err)
	}

	if bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}
	return rec.SubjectID, nil
}

func (p *LocalProvider) CreateAccount(ctx context.Context, email, password, _ string) (string, error) {
	return p.insert(ctx, uuid.NewString(), email, password)
}

func (p *LocalProvider) EnsureAccount(ctx context.Context, subjectID, email, password, _ string) (string, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, localTimeout)
	defer cancel()

	err := p.col.FindOne(lookupCtx, bson.M{"_id": subjectID}).Err()
	if err == nil {
		return subjectID, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return "", fmt.Errorf("ensure account: lookup: %w", err)
	}

	if _, err := p.insert(ctx, subjectID, email, password); err != nil {
		// A concurrent bootstrap may have won the creation.
		if errors.Is(err, domain.ErrUserExists) {
			return subjectID, nil
		}
		return "", err
	}
	return subjectID, nil
}

func (p *LocalProvider) insert(ctx context.Context, subjectID, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("create account: hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, localTimeout)
	defer cancel()

	_, err = p.col.InsertOne(ctx, credentialRecord{
		SubjectID:    subjectID,
		Email:        email,
		PasswordHash: hash,
	})
	if mongo.IsDuplicateKeyError(err) {
		return "", domain.ErrUserExists
	}
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	return subjectID, nil
}

func (p *LocalProvider) DeleteAccount(ctx context.Context, subjectID string) error {
	ctx, cancel := context.WithTimeout(ctx, localTimeout)
	defer cancel()

	if _, err := p.col.DeleteOne(ctx, bson.M{"_id": subjectID}); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (p *LocalProvider) UpdatePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	subjectID, err := p.VerifyCredentials(ctx, email, currentPassword)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("update password: hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, localTimeout)
	defer cancel()

	res, err := p.col.UpdateOne(ctx, bson.M{"_id": subjectID}, bson.M{"$set": bson.M{"password_hash": hash}})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// EnsureIndexes creates the unique email index on the credentials collection.
func (p *LocalProvider) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := p.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}
