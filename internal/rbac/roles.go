package rbac

// Role names. Keep these stable; they are part of the token contract.
const (
	// RoleAdmin manages clients and sees everything.
	RoleAdmin = "admin"
	// RoleOperator works the inbox: leads, contacts, manual sends.
	RoleOperator = "operator"
)

func IsAdmin(role string) bool { return role == RoleAdmin }
