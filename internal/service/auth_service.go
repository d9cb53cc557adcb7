package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ventarapida/internal/config"
	"ventarapida/internal/dto"
	"ventarapida/internal/model"
	"ventarapida/internal/repository"
	"ventarapida/internal/stock"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrCredencialesInvalidas = errors.New("credenciales invalidas")
	ErrTokenInvalido         = errors.New("refresh token invalido o expirado")
)

// BcryptCost is shared with the hash CLI command.
const BcryptCost = 12

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Perfil(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error)
	// CrearOActualizar creates the user or, when the username exists, resets
	// its password, role and balance. Used to seed operators from the CLI.
	CrearOActualizar(ctx context.Context, u NuevoUsuario) (*dto.UsuarioResponse, error)
}

type NuevoUsuario struct {
	Username string
	Nombre   string
	Email    *string
	Password string
	Rol      string
	Saldo    decimal.Decimal
}

type authService struct {
	repo repository.UsuarioRepository
	cfg  *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrCredencialesInvalidas
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrCredencialesInvalidas
	}
	return s.tokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalido
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalido
	}
	userIDStr, _ := claims["user_id"].(string)
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrTokenInvalido
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Activo {
		return nil, stock.ErrUsuarioNoEncontrado
	}
	return s.tokens(user)
}

func (s *authService) Perfil(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, stock.ErrUsuarioNoEncontrado
	}
	if err != nil {
		return nil, err
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) CrearOActualizar(ctx context.Context, u NuevoUsuario) (*dto.UsuarioResponse, error) {
	switch u.Rol {
	case model.RolAdministrador, model.RolVendedor, model.RolEstoquista:
	default:
		return nil, fmt.Errorf("rol invalido %q", u.Rol)
	}
	if u.Saldo.IsNegative() {
		return nil, fmt.Errorf("el saldo no puede ser negativo")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), BcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByUsername(ctx, u.Username)
	switch {
	case err == nil:
		user.PasswordHash = string(hash)
		user.Rol = u.Rol
		user.Saldo = stock.Redondear(u.Saldo)
		user.Activo = true
		if u.Nombre != "" {
			user.Nombre = u.Nombre
		}
		if u.Email != nil {
			user.Email = u.Email
		}
		err = s.repo.Update(ctx, user)
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &model.Usuario{
			Username:     u.Username,
			Nombre:       u.Nombre,
			Email:        u.Email,
			PasswordHash: string(hash),
			Rol:          u.Rol,
			Saldo:        stock.Redondear(u.Saldo),
			Activo:       true,
		}
		err = s.repo.Create(ctx, user)
	}
	if err != nil {
		return nil, err
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) tokens(user *model.Usuario) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"rol":      user.Rol,
		"exp":      time.Now().Add(duration).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Nombre:   u.Nombre,
		Email:    u.Email,
		Rol:      u.Rol,
		Saldo:    u.Saldo,
		Activo:   u.Activo,
	}
}
