package entity

import "time"

// Role rol de un usuario del CRM.
type Role string

// Roles válidos para User.
const (
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleDistribuidor Role = "DISTRIBUIDOR"
	RoleEmprendedor  Role = "EMPRENDEDOR"
	RoleAsistente    Role = "ASISTENTE"
)

// Sub-roles conocidos para ASISTENTE.
const (
	SubRoleComercial = "COMERCIAL"
)

// Roles lista en orden de jerarquía.
var Roles = []Role{RoleSuperAdmin, RoleDistribuidor, RoleEmprendedor, RoleAsistente}

// PrivilegedRoles roles exentos del filtro por propiedad.
var PrivilegedRoles = []Role{RoleSuperAdmin, RoleDistribuidor}

// Valid indica si el rol pertenece al vocabulario.
func (r Role) Valid() bool {
	for _, v := range Roles {
		if v == r {
			return true
		}
	}
	return false
}

// Privileged SUPER_ADMIN o DISTRIBUIDOR.
func (r Role) Privileged() bool {
	return r == RoleSuperAdmin || r == RoleDistribuidor
}

// User representa un usuario del CRM.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt, nunca sale del dominio
	Firstname    string
	Lastname     string
	Role         Role
	SubRole      *string // solo relevante para ASISTENTE
	Phone        string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName nombre para mostrar.
func (u *User) FullName() string {
	if u.Lastname == "" {
		return u.Firstname
	}
	return u.Firstname + " " + u.Lastname
}

// Field implementa query.Record.
func (u *User) Field(name string) any {
	switch name {
	case "id":
		return u.ID
	case "email":
		return u.Email
	case "firstname":
		return u.Firstname
	case "lastname":
		return u.Lastname
	case "role":
		return string(u.Role)
	case "subRole":
		return u.SubRole
	case "phone":
		return u.Phone
	case "isActive":
		return u.IsActive
	case "createdAt":
		return u.CreatedAt
	case "updatedAt":
		return u.UpdatedAt
	}
	return nil
}

// OwnedCounts registros que referencian a un usuario (bloquean su eliminación).
type OwnedCounts struct {
	Clients       int64
	PipelineItems int64
	Tasks         int64
	History       int64
}

// Total suma de registros asociados.
func (c OwnedCounts) Total() int64 {
	return c.Clients + c.PipelineItems + c.Tasks + c.History
}
