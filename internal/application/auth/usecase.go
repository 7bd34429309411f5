package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/CRM-api/internal/application/dto"
	"github.com/jhoicas/CRM-api/internal/application/validation"
	"github.com/jhoicas/CRM-api/internal/domain"
	"github.com/jhoicas/CRM-api/internal/domain/entity"
	"github.com/jhoicas/CRM-api/internal/domain/repository"
	"github.com/jhoicas/CRM-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// TokenRevoker lista negra de tokens cerrados con logout (opcional).
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthUseCase casos de uso de autenticación: registro, login, sesión y perfil.
type AuthUseCase struct {
	userRepo repository.UserRepository
	hasher   *Hasher
	jwtCfg   JWTConfig
	revoker  TokenRevoker
	log      zerolog.Logger
}

// NewAuthUseCase construye el caso de uso de auth. revoker puede ser nil.
func NewAuthUseCase(userRepo repository.UserRepository, hasher *Hasher, jwtCfg JWTConfig, revoker TokenRevoker) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, hasher: hasher, jwtCfg: jwtCfg, revoker: revoker, log: zerolog.Nop()}
}

// WithLogger asigna el logger del caso de uso.
func (uc *AuthUseCase) WithLogger(log zerolog.Logger) *AuthUseCase {
	uc.log = log
	return uc
}

// RegisterUser auto-registro. Solo se permiten roles no privilegiados (por defecto EMPRENDEDOR).
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	role := entity.Role(in.Role)
	if role == "" {
		role = entity.RoleEmprendedor
	}
	if role.Privileged() {
		return nil, domain.ErrForbidden
	}
	user, err := uc.NewUser(ctx, in, role)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

// NewUser hashea la contraseña y persiste el usuario con el rol indicado.
func (uc *AuthUseCase) NewUser(ctx context.Context, in dto.RegisterRequest, role entity.Role) (*entity.User, error) {
	email := normalizeEmail(in.Email)
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Firstname:    strings.TrimSpace(in.Firstname),
		Lastname:     strings.TrimSpace(in.Lastname),
		Role:         role,
		Phone:        strings.TrimSpace(in.Phone),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == entity.RoleAsistente {
		user.SubRole = in.SubRole
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifica email/password, genera JWT y retorna token + usuario.
// Credenciales inválidas y usuario desactivado devuelven ErrUnauthorized / ErrUserDisabled (401).
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !uc.hasher.Verify(user.PasswordHash, in.Password) {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, domain.ErrUserDisabled
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Email, string(user.Role), uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *ToUserResponse(user),
	}, nil
}

// Authenticate resuelve el token a un usuario activo, releyendo su estado en cada
// petición para que una desactivación aplique de inmediato.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	claims, err := jwt.Parse(uc.jwtCfg.Secret, token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}
	if uc.revoker != nil {
		revoked, err := uc.revoker.IsRevoked(ctx, token)
		if err != nil {
			// Falla cerrada: sin poder consultar la lista negra el token no se acepta.
			uc.log.Error().Err(err).Msg("auth: no se pudo consultar la lista negra")
			return nil, domain.ErrInvalidToken
		}
		if revoked {
			return nil, domain.ErrInvalidToken
		}
	}
	user, err := uc.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, domain.ErrUserDisabled
	}
	return user, nil
}

// Logout agrega el token a la lista negra hasta su vencimiento. Sin lista negra
// configurada no hace nada (los tokens son sin estado).
func (uc *AuthUseCase) Logout(ctx context.Context, token string) error {
	if uc.revoker == nil {
		return nil
	}
	claims, err := jwt.Parse(uc.jwtCfg.Secret, token)
	if err != nil {
		return nil
	}
	ttl := claims.Remaining(time.Now())
	if ttl <= 0 {
		return nil
	}
	return uc.revoker.Revoke(ctx, token, ttl)
}

// UpdateProfile el usuario edita sus propios datos de contacto.
func (uc *AuthUseCase) UpdateProfile(ctx context.Context, actor *entity.User, in dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user, err := uc.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if in.Firstname != nil {
		user.Firstname = strings.TrimSpace(*in.Firstname)
	}
	if in.Lastname != nil {
		user.Lastname = strings.TrimSpace(*in.Lastname)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	user.UpdatedAt = time.Now().UTC()
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

// ChangePassword verifica la contraseña actual antes de reemplazarla.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, actor *entity.User, in dto.ChangePasswordRequest) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	user, err := uc.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if !uc.hasher.Verify(user.PasswordHash, in.CurrentPassword) {
		return domain.NewValidationError("currentPassword", "la contraseña actual es incorrecta", nil)
	}
	hash, err := uc.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	return uc.userRepo.Update(ctx, user)
}

// ToUserResponse proyección pública (sin hash).
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Role:      string(u.Role),
		SubRole:   u.SubRole,
		Phone:     u.Phone,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
