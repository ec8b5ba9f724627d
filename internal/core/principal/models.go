package principal

import "time"

// Principal kinds. The kind decides what the web layer lets the principal do;
// admins additionally carry a department.
const (
	KindClient = "client"
	KindAdmin  = "admin"
)

type Principal struct {
	ID           int
	Kind         string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Department   string
	Verified     bool
	CreatedAt    time.Time
}

// Name returns the principal's display name.
func (p Principal) Name() string {
	return p.FirstName + " " + p.LastName
}

type NewPrincipal struct {
	Kind       string
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Department string
}
