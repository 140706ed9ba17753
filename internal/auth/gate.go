// Package auth decides who may use the portal: credential verifiers, the
// login and registration rules, and API tokens.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erazemk/lostfound/internal/model"
)

// userNamespace scopes the name-based UUIDs derived from university IDs.
var userNamespace = uuid.MustParse("6f1c2a8e-4b7d-5e90-8a3f-2d6c1b9e7a40")

// UserID derives the stable user id for a university ID.
func UserID(universityID string) string {
	return uuid.NewSHA1(userNamespace, []byte(universityID)).String()
}

// Gate applies the login and registration rules in front of a Verifier.
type Gate struct {
	verifier Verifier
	log      *zap.Logger
}

// NewGate creates a gate. A nil verifier means DemoVerifier with the default
// password.
func NewGate(v Verifier, log *zap.Logger) *Gate {
	if v == nil {
		v = DemoVerifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{verifier: v, log: log}
}

// Login checks the university ID format, then asks the verifier.
func (g *Gate) Login(ctx context.Context, universityID, password string) (model.User, error) {
	if err := model.ValidateUniversityIDLength(universityID); err != nil {
		return model.User{}, err
	}

	id, err := g.verifier.Verify(ctx, universityID, password)
	if errors.Is(err, ErrInvalidCredentials) {
		g.log.Warn("login failed", zap.String("university_id", universityID))
		return model.User{}, err
	}
	if err != nil {
		return model.User{}, err
	}

	u := userFor(*id)
	g.log.Info("user logged in", zap.String("university_id", u.UniversityID), zap.String("role", u.Role))
	return u, nil
}

// Register validates a registration and, if the verifier keeps credentials,
// enrolls it. New users always get the user role unless the verifier says
// otherwise.
func (g *Gate) Register(ctx context.Context, name, universityID, email, password string) (model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, &model.ValidationError{Field: "name", Message: "name is required"}
	}
	if err := model.ValidateUniversityID(universityID); err != nil {
		return model.User{}, err
	}
	email = strings.TrimSpace(email)
	if err := model.ValidateEmail(email); err != nil {
		return model.User{}, err
	}

	id := Identity{UniversityID: universityID, Name: name, Email: email, Role: model.RoleUser}
	if e, ok := g.verifier.(Enroller); ok {
		if err := e.Enroll(ctx, id, password); err != nil {
			return model.User{}, err
		}
		// Read back the role the verifier assigned.
		if enrolled, err := g.verifier.Verify(ctx, universityID, password); err == nil {
			id = *enrolled
		}
	}

	u := userFor(id)
	g.log.Info("user registered", zap.String("university_id", u.UniversityID))
	return u, nil
}

func userFor(id Identity) model.User {
	return model.User{
		ID:           UserID(id.UniversityID),
		UniversityID: id.UniversityID,
		Name:         id.Name,
		Email:        id.Email,
		Role:         id.Role,
	}
}
