package models

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Group struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatorID   uint      `json:"creator_id"`
	Members     []Member  `json:"members"`
	Tasks       []Task    `json:"tasks"`
	CreatedAt   time.Time `json:"created_at"`
}

// Member is a group membership. Accepted is false while the invitation is pending.
type Member struct {
	UserID   uint  `json:"user_id"`
	Role     Role  `json:"role"`
	Accepted bool  `json:"accepted"`
	User     *User `json:"user,omitempty"`
}

// HasMember reports whether userID is listed in the group, accepted or not.
func (g *Group) HasMember(userID uint) bool {
	return g.Member(userID) != nil
}

// Member returns the membership of userID or nil.
func (g *Group) Member(userID uint) *Member {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// IsAdmin reports whether userID holds the admin role.
func (g *Group) IsAdmin(userID uint) bool {
	m := g.Member(userID)
	return m != nil && m.Role == RoleAdmin
}

// GroupInput is the body of POST /groups.
type GroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UserIDs     []uint `json:"user_ids"`
}

// GroupPatch is the body of PUT /groups/{id}.
type GroupPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// MembersInput is the body of POST /groups/{id}/members.
type MembersInput struct {
	UserIDs []uint `json:"user_ids"`
}

// Invitation is a pending membership of the current user.
type Invitation struct {
	GroupID     uint      `json:"group_id"`
	GroupName   string    `json:"group_name"`
	Description string    `json:"description"`
	Role        Role      `json:"role"`
	InvitedAt   time.Time `json:"invited_at"`
}
