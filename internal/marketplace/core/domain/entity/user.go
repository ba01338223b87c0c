package entity

import "time"

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleLogistics1 Role = "logistics1"
	RoleLogistics2 Role = "logistics2"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleLogistics1, RoleLogistics2:
		return true
	}
	return false
}

func (r Role) IsLogistics() bool {
	return r == RoleLogistics1 || r == RoleLogistics2
}

type User struct {
	ID             int64
	Name           string
	Email          string
	PasswordHash   string
	CNPJ           string
	Phone          string
	EmployeeCount  string
	MonthlyRevenue string
	Role           Role
	CreatedAt      time.Time
}

// Registration is the sign-up form of a buyer company.
type Registration struct {
	Name           string
	Email          string
	Password       string
	CNPJ           string
	Phone          string
	EmployeeCount  string
	MonthlyRevenue string
}
