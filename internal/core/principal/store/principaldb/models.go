package principaldb

import (
	"time"

	"github.com/vbrandao/bank/internal/core/principal"
)

type dbPrincipal struct {
	ID           int       `db:"id"`
	Kind         string    `db:"kind"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Department   string    `db:"department"`
	Verified     bool      `db:"verified"`
	CreatedAt    time.Time `db:"created_at"`
}

func toDBPrincipal(p principal.Principal) dbPrincipal {
	return dbPrincipal{
		ID:           p.ID,
		Kind:         p.Kind,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Department:   p.Department,
		Verified:     p.Verified,
		CreatedAt:    p.CreatedAt,
	}
}

func toPrincipal(p dbPrincipal) principal.Principal {
	return principal.Principal(p)
}

type dbID struct {
	ID int `db:"id"`
}
