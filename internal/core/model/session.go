package model

import "errors"

// Roles known to the portal.
const (
	RoleAdmin   = "ADMIN"
	RoleVisitor = "USER"
	noRole      = "Sin rol"
)

var (
	// ErrUnauthorized is returned when the portal rejects the credentials.
	ErrUnauthorized = errors.New("credenciales invalidas")
	// ErrPermissionDenied is returned when a non-admin session edits data.
	ErrPermissionDenied = errors.New("No tienes permisos para realizar esta acción. Solo usuarios ADMIN pueden editar.")
	// ErrNoSession is returned when a command needs a logged-in user.
	ErrNoSession = errors.New("no hay sesion activa, ejecute 'go-ssgg-monitor login' primero")
)

// Session is the authenticated identity. It is an immutable value; callers
// receive it explicitly. Role checks only gate what is offered to the user,
// they do not protect the remote API.
type Session struct {
	user    string
	company string
	role    string
}

// NewSession builds a session from the values returned at login.
func NewSession(user, company, role string) Session {
	return Session{user: user, company: company, role: role}
}

func (s Session) User() string    { return s.user }
func (s Session) Company() string { return s.company }

// Role returns the role name, or "Sin rol" when none was assigned.
func (s Session) Role() string {
	if s.role == "" {
		return noRole
	}
	return s.role
}

func (s Session) IsAdmin() bool   { return s.role == RoleAdmin }
func (s Session) IsVisitor() bool { return s.role == RoleVisitor }

// CanEdit reports whether create and edit actions are offered.
func (s Session) CanEdit() bool { return s.IsAdmin() }

// IsZero reports whether no user is logged in.
func (s Session) IsZero() bool { return s.user == "" && s.role == "" }

// RequireEdit returns ErrPermissionDenied unless the session can edit.
func (s Session) RequireEdit() error {
	if !s.CanEdit() {
		return ErrPermissionDenied
	}
	return nil
}

// SessionFile is the on-disk form of a Session.
type SessionFile struct {
	User    string `json:"user"`
	Company string `json:"company"`
	Role    string `json:"role"`
}

// ToFile converts the session for persistence.
func (s Session) ToFile() SessionFile {
	return SessionFile{User: s.user, Company: s.company, Role: s.role}
}

// Session rebuilds the immutable value.
func (f SessionFile) Session() Session {
	return NewSession(f.User, f.Company, f.Role)
}
