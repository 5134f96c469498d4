package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/acaduss/acaduss-backend/internal/data/repos"
	types "github.com/acaduss/acaduss-backend/internal/domain"
	"github.com/acaduss/acaduss-backend/internal/normalization"
	pkgerrors "github.com/acaduss/acaduss-backend/internal/pkg/errors"
	"github.com/acaduss/acaduss-backend/internal/platform/apierr"
	"github.com/acaduss/acaduss-backend/internal/platform/ctxutil"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

const (
	DefaultInstitutionalDomain = "@correo.uss.cl"
	DefaultAccessTTL           = 8 * time.Hour
	MinPasswordLength          = 6

	msgEmailTaken         = "El correo ya está registrado."
	msgWeakPassword       = "La contraseña no cumple la política de seguridad."
	msgInvalidCredentials = "Credenciales inválidas"
)

type JWTClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type AuthConfig struct {
	JWTSecret           string
	AccessTTL           time.Duration
	InstitutionalDomain string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.Profile, error)
	// Login returns a signed access token.
	Login(ctx context.Context, email, password string) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db          *gorm.DB
	log         *logger.Logger
	profileRepo repos.ProfileRepo
	secret      []byte
	accessTTL   time.Duration
	domain      string
}

func NewAuthService(db *gorm.DB, log *logger.Logger, profileRepo repos.ProfileRepo, cfg AuthConfig) AuthService {
	serviceLog := log.With("service", "AuthService")
	ttl := cfg.AccessTTL
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	domain := strings.ToLower(strings.TrimSpace(cfg.InstitutionalDomain))
	if domain == "" {
		domain = DefaultInstitutionalDomain
	}
	if !strings.HasPrefix(domain, "@") {
		domain = "@" + domain
	}
	secret := cfg.JWTSecret
	if secret == "" {
		serviceLog.Warn("JWT_SECRET not set, using insecure default")
		secret = "changeme"
	}
	return &authService{
		db:          db,
		log:         serviceLog,
		profileRepo: profileRepo,
		secret:      []byte(secret),
		accessTTL:   ttl,
		domain:      domain,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

// InstitutionalEmailError is the rejection for addresses outside domain.
func InstitutionalEmailError(domain string) *apierr.Error {
	return apierr.BadRequest("institutional_email", fmt.Sprintf("Debe usar correo institucional (%s)", domain))
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.Profile, error) {
	email := normalization.ParseInputString(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.BadRequest("invalid_email", "Correo inválido")
	}
	if !strings.HasSuffix(email, as.domain) {
		return nil, InstitutionalEmailError(as.domain)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apierr.BadRequest("weak_password", msgWeakPassword)
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = types.RoleStudent
	}
	if !types.ValidProfileRole(role) {
		return nil, apierr.BadRequest("invalid_role", "Rol inválido")
	}

	exists, err := as.profileRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, emailTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt rejects passwords over 72 bytes
		return nil, apierr.WithMessage(http.StatusBadRequest, "weak_password", msgWeakPassword, pkgerrors.ErrInvalidArgument)
	}

	profile := &types.Profile{
		Email:        email,
		Username:     strings.TrimSpace(in.Username),
		FullName:     strings.TrimSpace(in.Name),
		Role:         role,
		PasswordHash: string(hash),
	}
	created, err := as.profileRepo.Create(ctx, nil, profile)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, emailTakenError()
		}
		as.log.Error("create profile failed", "email", email, "error", err)
		return nil, fmt.Errorf("No se pudo crear el usuario: %w", err)
	}
	as.log.Info("registered profile", "user_id", created.ID.String(), "role", created.Role)
	return created, nil
}

func emailTakenError() *apierr.Error {
	return apierr.WithMessage(http.StatusConflict, "email_taken", msgEmailTaken, pkgerrors.ErrConflict)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func invalidCredentials() *apierr.Error {
	return apierr.WithMessage(http.StatusUnauthorized, "invalid_credentials", msgInvalidCredentials, pkgerrors.ErrUnauthorized)
}

func (as *authService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalization.ParseInputString(email)
	if email == "" || password == "" {
		return "", invalidCredentials()
	}
	profile, err := as.profileRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return "", invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", invalidCredentials()
	}
	return as.generateAccessToken(profile)
}

func (as *authService) generateAccessToken(profile *types.Profile) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Email: profile.Email,
		Role:  profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.secret)
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return as.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ctx, fmt.Errorf("%w: invalid or expired token", pkgerrors.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: invalid subject", pkgerrors.ErrUnauthorized)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Email:       claims.Email,
		Role:        claims.Role,
	}), nil
}
