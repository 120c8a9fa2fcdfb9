package models

import (
	"fmt"
	"time"
)

// MemberRole classifies a member of the council. It is chosen explicitly when
// the member is created and drives grouping on the public pages.
type MemberRole string

const (
	RoleAdvisor MemberRole = "advisor"
	RoleOfficer MemberRole = "officer"
	RoleMember  MemberRole = "member"
)

// MemberRoles lists roles in display order.
var MemberRoles = []MemberRole{RoleAdvisor, RoleOfficer, RoleMember}

// ParseMemberRole validates a role coming from a form or a seed file.
func ParseMemberRole(s string) (MemberRole, error) {
	for _, r := range MemberRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown member role %q", s)
}

// Member is a person shown in the council structure.
type Member struct {
	ID        int64
	Name      string
	Position  string
	Role      MemberRole
	ImageURL  string
	ImageKey  string
	CreatedAt time.Time
}
