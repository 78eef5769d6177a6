package model

// Role values understood by the console. The column is an open string so a
// future role does not need a migration; only these two carry meaning today.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DefaultRole is assigned when a user is created without an explicit role.
const DefaultRole = RoleUser
