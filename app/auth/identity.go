package auth

import (
	"cmp"

	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/samber/lo"
)

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// Identity is the logged-in user held in the session.
type Identity struct {
	Subject string   `json:"sub"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Roles   []string `json:"roles"`
}

// HasAnyRole reports whether the identity holds one of roles. A user whose
// display name equals a role name holds that role, matching how accounts
// were provisioned at the identity provider.
func (i *Identity) HasAnyRole(roles ...string) bool {
	if i == nil {
		return false
	}
	return lo.SomeBy(roles, func(role string) bool {
		return lo.Contains(i.Roles, role) || i.Name == role
	})
}

func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	return cmp.Or(i.Name, i.Email, i.Subject)
}

// Snapshot returns the author record stored with a comment, or nil for an
// anonymous user.
func (i *Identity) Snapshot() *database.Author {
	if i == nil {
		return nil
	}
	return &database.Author{
		Subject: i.Subject,
		Email:   i.Email,
		Name:    i.Name,
	}
}

func (i *Identity) addRoles(roles ...string) {
	i.Roles = lo.Uniq(append(i.Roles, roles...))
}
