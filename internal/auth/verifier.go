package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/lostfound/internal/kv"
	"github.com/erazemk/lostfound/internal/model"
)

var (
	// ErrInvalidCredentials is returned when a verifier refuses a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAlreadyEnrolled is returned when registering a university ID that
	// already has credentials.
	ErrAlreadyEnrolled = errors.New("university ID is already registered")
)

// Identity is what a verifier knows about a person.
type Identity struct {
	UniversityID string `json:"universityId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
}

// Verifier checks a university ID and secret.
type Verifier interface {
	Verify(ctx context.Context, universityID, secret string) (*Identity, error)
}

// Enroller is implemented by verifiers that keep credentials of their own and
// need to learn about new registrations.
type Enroller interface {
	Enroll(ctx context.Context, id Identity, secret string) error
}

// Demo accounts.
const (
	DemoAdminID   = "0000000000"
	DemoStudentID = "9876543210"
)

// DefaultDemoPassword is the shared password of non-demo accounts.
const DefaultDemoPassword = "password"

// DemoVerifier accepts the demo admin and demo student with any password and
// everyone else with one shared password.
type DemoVerifier struct {
	Password string
}

func (v DemoVerifier) Verify(_ context.Context, universityID, secret string) (*Identity, error) {
	password := v.Password
	if password == "" {
		password = DefaultDemoPassword
	}

	isAdmin := universityID == DemoAdminID
	if !isAdmin && universityID != DemoStudentID && secret != password {
		return nil, ErrInvalidCredentials
	}

	id := &Identity{
		UniversityID: universityID,
		Name:         "Student User",
		Email:        universityID + model.EmailDomain,
		Role:         model.RoleUser,
	}
	if isAdmin {
		id.Name = "Admin User"
		id.Role = model.RoleAdmin
	}
	return id, nil
}

const credentialsPrefix = "credentials/"

type credential struct {
	Identity
	Hash string `json:"hash"`
}

// BcryptVerifier checks passwords enrolled at registration. Hashes live in
// the key-value store under credentials/<universityId>.
type BcryptVerifier struct {
	kv     kv.Store
	admins []string
	cost   int
}

// NewBcryptVerifier creates a verifier over s. University IDs listed in
// admins are enrolled with the admin role.
func NewBcryptVerifier(s kv.Store, admins ...string) *BcryptVerifier {
	return &BcryptVerifier{kv: s, admins: admins, cost: bcrypt.DefaultCost}
}

func (v *BcryptVerifier) Verify(ctx context.Context, universityID, secret string) (*Identity, error) {
	data, err := v.kv.Get(ctx, credentialsPrefix+universityID)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	var c credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding credentials for %s: %w", universityID, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(secret)); err != nil {
		return nil, ErrInvalidCredentials
	}

	id := c.Identity
	return &id, nil
}

func (v *BcryptVerifier) Enroll(ctx context.Context, id Identity, secret string) error {
	if secret == "" {
		return &model.ValidationError{Field: "password", Message: "password is required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), v.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	id.Role = model.RoleUser
	if slices.Contains(v.admins, id.UniversityID) {
		id.Role = model.RoleAdmin
	}

	data, err := json.Marshal(credential{Identity: id, Hash: string(hash)})
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	stored, err := v.kv.PutIfAbsent(ctx, credentialsPrefix+id.UniversityID, data)
	if err != nil {
		return fmt.Errorf("storing credentials: %w", err)
	}
	if !bytes.Equal(stored, data) {
		return ErrAlreadyEnrolled
	}
	return nil
}
