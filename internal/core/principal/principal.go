// Package principal represents the people using the bank. A principal is
// either a banking client or an administrator, one record with a kind tag
// rather than a type hierarchy.
package principal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vbrandao/bank/internal/web"
	"golang.org/x/crypto/bcrypt"
)

// Set of errors for principal API.
var (
	ErrNotFound        = errors.New("principal: not found")
	ErrInvalidArgument = errors.New("principal: invalid argument")
	ErrEmailTaken      = errors.New("principal: email already registered")
)

// Store is used to persist principal data.
type Store interface {
	Insert(ctx context.Context, p Principal) (int, error)
	QueryByID(ctx context.Context, principalID int) (Principal, error)
	QueryByEmail(ctx context.Context, email string) (Principal, error)
}

// Core deals with principal business logic.
type Core struct {
	store Store
}

func NewCore(store Store) *Core {
	return &Core{store: store}
}

// Register creates a new principal with a bcrypt-hashed credential.
func (c *Core) Register(ctx context.Context, np NewPrincipal) (Principal, error) {
	if err := np.validate(); err != nil {
		return Principal{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(np.Password), bcrypt.DefaultCost)
	if err != nil {
		return Principal{}, fmt.Errorf("hashing password: %w", err)
	}

	p := Principal{
		Kind:         np.Kind,
		Email:        strings.ToLower(np.Email),
		PasswordHash: string(hash),
		FirstName:    np.FirstName,
		LastName:     np.LastName,
		Department:   np.Department,
		CreatedAt:    web.GetTime(ctx).Round(time.Microsecond),
	}

	id, err := c.store.Insert(ctx, p)
	if err != nil {
		return Principal{}, err
	}
	p.ID = id

	return p, nil
}

// QueryByID returns the principal with the given id.
func (c *Core) QueryByID(ctx context.Context, principalID int) (Principal, error) {
	return c.store.QueryByID(ctx, principalID)
}

// QueryByEmail returns the principal registered under email.
func (c *Core) QueryByEmail(ctx context.Context, email string) (Principal, error) {
	return c.store.QueryByEmail(ctx, strings.ToLower(email))
}

func (np NewPrincipal) validate() error {
	switch {
	case np.Kind != KindClient && np.Kind != KindAdmin:
		return ErrInvalidArgument
	case !strings.Contains(np.Email, "@"):
		return ErrInvalidArgument
	case len(np.Password) < 6:
		return ErrInvalidArgument
	case np.FirstName == "" || np.LastName == "":
		return ErrInvalidArgument
	case np.Department != "" && np.Kind != KindAdmin:
		return ErrInvalidArgument
	}

	return nil
}
