package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionRoles(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		isAdmin   bool
		isVisitor bool
		roleName  string
	}{
		{name: "admin", role: "ADMIN", isAdmin: true, roleName: "ADMIN"},
		{name: "visitor", role: "USER", isVisitor: true, roleName: "USER"},
		{name: "no role", role: "", roleName: "Sin rol"},
		{name: "lowercase is not admin", role: "admin", roleName: "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("jperez", "Ariztia", tt.role)
			assert.Equal(t, tt.isAdmin, s.IsAdmin())
			assert.Equal(t, tt.isVisitor, s.IsVisitor())
			assert.Equal(t, tt.isAdmin, s.CanEdit())
			assert.Equal(t, tt.roleName, s.Role())
		})
	}
}

func TestSessionRequireEdit(t *testing.T) {
	assert.NoError(t, NewSession("a", "b", RoleAdmin).RequireEdit())
	err := NewSession("a", "b", RoleVisitor).RequireEdit()
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, "No tienes permisos para realizar esta acción. Solo usuarios ADMIN pueden editar.", err.Error())
}

func TestSessionFileRoundTrip(t *testing.T) {
	s := NewSession("jperez", "Ariztia", RoleAdmin)
	assert.Equal(t, s, s.ToFile().Session())
	assert.True(t, Session{}.IsZero())
	assert.False(t, s.IsZero())
}
