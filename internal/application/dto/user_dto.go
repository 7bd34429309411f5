package dto

import "time"

// RegisterRequest alta de usuario (auto-registro o alta administrativa).
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6"`
	Firstname string  `json:"firstname" validate:"required,min=2,max=50"`
	Lastname  string  `json:"lastname" validate:"required,min=2,max=50"`
	Role      string  `json:"role" validate:"omitempty,oneof=SUPER_ADMIN DISTRIBUIDOR EMPRENDEDOR ASISTENTE"`
	SubRole   *string `json:"subRole" validate:"omitempty,max=30"`
	Phone     string  `json:"phone" validate:"omitempty,max=30"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse token JWT + usuario.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Role      string    `json:"role"`
	SubRole   *string   `json:"subRole,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateProfileRequest el propio usuario actualiza sus datos.
type UpdateProfileRequest struct {
	Firstname *string `json:"firstname" validate:"omitempty,min=2,max=50"`
	Lastname  *string `json:"lastname" validate:"omitempty,min=2,max=50"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
}

// UpdateUserRequest edición de usuario; role/subRole/isActive solo para roles privilegiados.
type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Firstname *string `json:"firstname" validate:"omitempty,min=2,max=50"`
	Lastname  *string `json:"lastname" validate:"omitempty,min=2,max=50"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
	Role      *string `json:"role" validate:"omitempty,oneof=SUPER_ADMIN DISTRIBUIDOR EMPRENDEDOR ASISTENTE"`
	SubRole   *string `json:"subRole" validate:"omitempty,max=30"`
	IsActive  *bool   `json:"isActive"`
}

// ChangePasswordRequest cambio de contraseña propio.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// SetPasswordRequest cambio de contraseña administrativo.
type SetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// UserListParams filtros de usuarios.
type UserListParams struct {
	ListParams
	Role     string `query:"role"`
	IsActive string `query:"isActive"`
}

// UserListResponse página de usuarios.
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination Pagination     `json:"pagination"`
}

// UserStatsResponse conteos de usuarios.
type UserStatsResponse struct {
	Total    int64       `json:"total"`
	Active   int64       `json:"active"`
	Inactive int64       `json:"inactive"`
	ByRole   []CountItem `json:"byRole"`
}

// AuthUserResponse mensaje + usuario (registro y perfil).
type AuthUserResponse struct {
	Message string       `json:"message,omitempty"`
	User    UserResponse `json:"user"`
}

// VerifyResponse GET /auth/verify.
type VerifyResponse struct {
	Valid bool         `json:"valid"`
	User  UserResponse `json:"user"`
}
