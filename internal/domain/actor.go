package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
	RoleDesigner Role = "designer"
	RoleDelivery Role = "delivery"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleCustomer, RoleManager, RoleDesigner, RoleDelivery:
		return r, true
	}
	return "", false
}

// Actor is the caller identity supplied by the gateway. It is trusted as is.
type Actor struct {
	ID   string
	Role Role
}
