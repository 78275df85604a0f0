package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ventify/internal/apierror"
	"ventify/internal/config"
	"ventify/internal/dto"
	"ventify/internal/model"
	"ventify/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// bcryptCost is shared with cmd/seeduser through HashPassword.
const bcryptCost = 12

// ErrCredencialesInvalidas is returned by Login and Refresh; handlers map it to 401.
var ErrCredencialesInvalidas = errors.New("credenciales invalidas")

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	// RegistrarNegocio creates a tenant and its dueno in one transaction.
	RegistrarNegocio(ctx context.Context, req dto.RegistroNegocioRequest) (*dto.LoginResponse, error)
	CrearUsuario(ctx context.Context, actor model.Actor, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context, actor model.Actor, incluirInactivos bool) ([]dto.UsuarioResponse, error)
	ActualizarUsuario(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	DesactivarUsuario(ctx context.Context, actor model.Actor, id uuid.UUID) error
	ReactivarUsuario(ctx context.Context, actor model.Actor, id uuid.UUID) error
}

type authService struct {
	repo        repository.UsuarioRepository
	negocioRepo repository.NegocioRepository
	cfg         *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, negocioRepo repository.NegocioRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, negocioRepo: negocioRepo, cfg: cfg}
}

// HashPassword hashes a plain password with the service's bcrypt cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByLogin(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCredencialesInvalidas
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrCredencialesInvalidas
	}
	return s.emitirTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrCredencialesInvalidas
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != model.TokenRefresh {
		return nil, ErrCredencialesInvalidas
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrCredencialesInvalidas
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrCredencialesInvalidas
	}

	user, err := s.repo.FindActivoByID(ctx, uid)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCredencialesInvalidas
		}
		return nil, err
	}
	return s.emitirTokens(user)
}

func (s *authService) RegistrarNegocio(ctx context.Context, req dto.RegistroNegocioRequest) (*dto.LoginResponse, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var user *model.Usuario
	err = runTx(ctx, s.negocioRepo.DB(), func(tx *gorm.DB) error {
		negocio := &model.Negocio{Nombre: strings.TrimSpace(req.NombreNegocio)}
		if err := s.negocioRepo.Create(ctx, tx, negocio); err != nil {
			return fmt.Errorf("crear negocio: %w", err)
		}
		user = &model.Usuario{
			NegocioID:    &negocio.ID,
			Username:     strings.TrimSpace(req.Username),
			Nombre:       req.Nombre,
			Email:        normalizarEmail(req.Email),
			PasswordHash: hash,
			Rol:          model.RolDueno,
			Activo:       true,
		}
		if err := s.repo.Create(ctx, tx, user); err != nil {
			if repository.IsUniqueViolation(err) {
				return apierror.InvalidState("El nombre de usuario ya está en uso.")
			}
			return fmt.Errorf("crear dueño: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("negocio_id", user.NegocioID.String()).Str("username", user.Username).Msg("negocio registrado")
	return s.emitirTokens(user)
}

// ── Usuarios ──────────────────────────────────────────────────────────────────

func (s *authService) CrearUsuario(ctx context.Context, actor model.Actor, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	negocioID := actor.NegocioID
	user := &model.Usuario{
		NegocioID:    &negocioID,
		Username:     strings.TrimSpace(req.Username),
		Nombre:       req.Nombre,
		Email:        normalizarEmail(req.Email),
		PasswordHash: hash,
		Rol:          req.Rol,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, nil, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apierror.InvalidState("El nombre de usuario ya está en uso.")
		}
		return nil, err
	}
	return usuarioToResponse(user), nil
}

func (s *authService) ListarUsuarios(ctx context.Context, actor model.Actor, incluirInactivos bool) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx, actor.NegocioID, incluirInactivos)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = *usuarioToResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) ActualizarUsuario(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, actor.NegocioID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("Usuario no encontrado")
		}
		return nil, err
	}
	if user.Rol == model.RolDueno && req.Rol != "" {
		return nil, apierror.InvalidState("No se puede cambiar el rol del dueño.")
	}
	if req.Nombre != "" {
		user.Nombre = req.Nombre
	}
	if req.Email != nil {
		user.Email = normalizarEmail(req.Email)
	}
	if req.Rol != "" {
		user.Rol = req.Rol
	}
	if req.Password != "" {
		hash, err := HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return usuarioToResponse(user), nil
}

func (s *authService) DesactivarUsuario(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if id == actor.UsuarioID {
		return apierror.InvalidState("No puedes desactivar tu propia cuenta.")
	}
	return s.setActivo(ctx, actor, id, false)
}

func (s *authService) ReactivarUsuario(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	return s.setActivo(ctx, actor, id, true)
}

func (s *authService) setActivo(ctx context.Context, actor model.Actor, id uuid.UUID, activo bool) error {
	if err := s.repo.SetActivo(ctx, actor.NegocioID, id, activo); err != nil {
		if repository.IsNotFound(err) {
			return apierror.NotFound("Usuario no encontrado")
		}
		return err
	}
	return nil
}

// ── Tokens ────────────────────────────────────────────────────────────────────

func (s *authService) emitirTokens(user *model.Usuario) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, model.TokenAcceso, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, model.TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         *usuarioToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, tipo string, duration time.Duration) (string, error) {
	negocioID := ""
	if user.NegocioID != nil {
		negocioID = user.NegocioID.String()
	}
	claims := jwt.MapClaims{
		"user_id":    user.ID.String(),
		"username":   user.Username,
		"nombre":     user.Nombre,
		"rol":        user.Rol,
		"negocio_id": negocioID,
		"typ":        tipo,
		"exp":        time.Now().Add(duration).Unix(),
		"iat":        time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func normalizarEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	return &e
}

func usuarioToResponse(u *model.Usuario) *dto.UsuarioResponse {
	resp := &dto.UsuarioResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Nombre:   u.Nombre,
		Email:    u.Email,
		Rol:      u.Rol,
		Activo:   u.Activo,
	}
	if u.NegocioID != nil {
		n := u.NegocioID.String()
		resp.NegocioID = &n
	}
	return resp
}
