// Package role defines the access roles recognized by the CLI.
package role

import "fmt"

// Role is a closed set of access levels.
type Role string

const (
	Student Role = "student"
	Faculty Role = "faculty"
	Admin   Role = "admin"
)

// Parse maps a raw string to a Role. Unrecognized values are an error,
// never a silent default.
func Parse(raw string) (Role, error) {
	switch Role(raw) {
	case Student, Faculty, Admin:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unrecognized role %q (want student, faculty, or admin)", raw)
	}
}

// CanIngest reports whether the role may add or replace documents.
// Students are read-only.
func (r Role) CanIngest() bool {
	return r == Faculty || r == Admin
}

// CanMigrate reports whether the role may run schema migrations.
func (r Role) CanMigrate() bool {
	return r == Admin
}

func (r Role) String() string { return string(r) }
