package model

import "time"

// Закрытый набор ролей пользователей системы
const (
	RoleGP         = "gp"
	RoleSpecialist = "specialist"
	RoleAuditor    = "auditor"
	RoleAdmin      = "admin"
)

var knownRoles = map[string]struct{}{
	RoleGP:         {},
	RoleSpecialist: {},
	RoleAuditor:    {},
	RoleAdmin:      {},
}

func ValidRole(role string) bool {
	_, ok := knownRoles[role]
	return ok
}

type User struct {
	UUID         string    `db:"uuid" json:"uuid"`
	Username     string    `db:"username" json:"username"`
	Role         string    `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
