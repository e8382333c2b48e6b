package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	cases := []struct {
		name     string
		actual   string
		required string
		want     bool
	}{
		{"staff cannot act as manager", RoleStaff, RoleManager, false},
		{"manager can act as staff", RoleManager, RoleStaff, true},
		{"admin can act as admin", RoleAdmin, RoleAdmin, true},
		{"admin can act as staff", RoleAdmin, RoleStaff, true},
		{"unknown role is denied", "bogus-role", RoleStaff, false},
		{"empty role is denied", "", RoleStaff, false},
		{"matching is case-sensitive", "Admin", RoleStaff, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasPermission(tc.actual, tc.required))
		})
	}
}
