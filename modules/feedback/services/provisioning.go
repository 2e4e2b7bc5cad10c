package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/loophq/loop360/pkg/composables"
)

// AccountProvisioner creates login accounts for newly registered subjects
// and evaluators. Implementations live at the identity boundary; duplicate
// emails must come back as descriptive errors, not panics.
type AccountProvisioner interface {
	CreateAccount(ctx context.Context, firstName, lastName, email, passwordHash string, roles []string) (uuid.UUID, error)
}

// PasswordGenerator produces the default password handed to a new account.
// It must be deterministic for the same email so that re-provisioning after
// a partial failure yields the same credential.
type PasswordGenerator interface {
	Generate(email string) string
}

type deterministicPasswordGenerator struct {
	salt string
}

// NewPasswordGenerator returns the default deterministic generator.
func NewPasswordGenerator(salt string) PasswordGenerator {
	return &deterministicPasswordGenerator{salt: salt}
}

func (g *deterministicPasswordGenerator) Generate(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email)) + g.salt))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:12]
}

// LoggingAccountProvisioner is a stand-in used in wiring and tests. It never
// fails; it only logs the account it would have created.
type LoggingAccountProvisioner struct{}

func (p *LoggingAccountProvisioner) CreateAccount(ctx context.Context, firstName, lastName, email, passwordHash string, roles []string) (uuid.UUID, error) {
	id := uuid.New()
	composables.UseLogger(ctx).
		WithField("email", email).
		WithField("roles", roles).
		WithField("user_id", id).
		Info("provisioned login account")
	return id, nil
}

func hashDefaultPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
