package domain

// Role is resolved once by the auth layer and carried into every operation.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleSeller
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID int64
	Role   Role
}

func Customer(userID int64) Actor {
	return Actor{UserID: userID, Role: RoleCustomer}
}

func Seller(userID int64) Actor {
	return Actor{UserID: userID, Role: RoleSeller}
}

func (a Actor) IsSeller() bool {
	return a.Role == RoleSeller
}

func (a Actor) IsCustomer() bool {
	return a.Role == RoleCustomer
}
