package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	pkgerrors "github.com/acaduss/acaduss-backend/internal/pkg/errors"
	"github.com/acaduss/acaduss-backend/internal/platform/ctxutil"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

type fakeProfileRepo struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*types.Profile
	createErr error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byID: map[uuid.UUID]*types.Profile{}}
}

func (f *fakeProfileRepo) Create(_ context.Context, _ *gorm.DB, p *types.Profile) (*types.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	f.byID[p.ID] = &cp
	return p, nil
}

func (f *fakeProfileRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeProfileRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (*types.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeProfileRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	p, err := f.GetByEmail(ctx, tx, email)
	return p != nil, err
}

func (f *fakeProfileRepo) List(_ context.Context, _ *gorm.DB) ([]*types.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*types.Profile, 0, len(f.byID))
	for _, p := range f.byID {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeProfileRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil
	}
	for k, v := range updates {
		switch k {
		case "username":
			p.Username = v.(string)
		case "full_name":
			p.FullName = v.(string)
		case "role":
			p.Role = v.(string)
		}
	}
	return nil
}

func newTestAuth(repo *fakeProfileRepo) AuthService {
	return NewAuthService(nil, logger.Nop(), repo, AuthConfig{JWTSecret: "test-secret"})
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name    string
		in      RegisterInput
		wantMsg string
	}{
		{
			name:    "foreign_domain",
			in:      RegisterInput{Email: "ana@gmail.com", Password: "secreto1"},
			wantMsg: "Debe usar correo institucional (@correo.uss.cl)",
		},
		{
			name:    "lookalike_domain",
			in:      RegisterInput{Email: "ana@correo.uss.cl.evil.com", Password: "secreto1"},
			wantMsg: "Debe usar correo institucional (@correo.uss.cl)",
		},
		{
			name:    "short_password",
			in:      RegisterInput{Email: "ana@correo.uss.cl", Password: "123"},
			wantMsg: "La contraseña no cumple la política de seguridad.",
		},
		{
			name:    "bad_role",
			in:      RegisterInput{Email: "ana@correo.uss.cl", Password: "secreto1", Role: "root"},
			wantMsg: "Rol inválido",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestAuth(newFakeProfileRepo()).Register(context.Background(), tc.in)
			if err == nil {
				t.Fatalf("expected error")
			}
			if err.Error() != tc.wantMsg {
				t.Fatalf("error=%q, want %q", err.Error(), tc.wantMsg)
			}
			if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeProfileRepo()
	auth := newTestAuth(repo)
	ctx := context.Background()

	profile, err := auth.Register(ctx, RegisterInput{Email: "  Ana.Perez@Correo.USS.cl ", Password: "secreto1", Name: "Ana Pérez"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if profile.Email != "ana.perez@correo.uss.cl" || profile.Role != types.RoleStudent || profile.FullName != "Ana Pérez" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.PasswordHash == "" || profile.PasswordHash == "secreto1" {
		t.Fatalf("password was not hashed")
	}

	_, err = auth.Register(ctx, RegisterInput{Email: "ana.perez@correo.uss.cl", Password: "otraclave"})
	if !errors.Is(err, pkgerrors.ErrConflict) || err.Error() != "El correo ya está registrado." {
		t.Fatalf("duplicate register: %v", err)
	}

	if _, err := auth.Login(ctx, "ana.perez@correo.uss.cl", "incorrecta"); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := auth.Login(ctx, "nadie@correo.uss.cl", "secreto1"); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("unknown email: %v", err)
	}

	token, err := auth.Login(ctx, "ANA.PEREZ@correo.uss.cl", "secreto1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	authed, err := auth.SetContextFromToken(ctx, token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(authed)
	if rd == nil || rd.UserID != profile.ID || rd.Email != profile.Email || rd.Role != types.RoleStudent {
		t.Fatalf("unexpected request data: %+v", rd)
	}
	if auth.GetAccessTTL() != 8*time.Hour {
		t.Fatalf("GetAccessTTL=%v", auth.GetAccessTTL())
	}
}

func TestRegisterMapsUniqueViolation(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.createErr = gorm.ErrDuplicatedKey
	_, err := newTestAuth(repo).Register(context.Background(), RegisterInput{Email: "ana@correo.uss.cl", Password: "secreto1"})
	if !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSetContextFromTokenRejects(t *testing.T) {
	repo := newFakeProfileRepo()
	ctx := context.Background()
	if _, err := newTestAuth(repo).Register(ctx, RegisterInput{Email: "ana@correo.uss.cl", Password: "secreto1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	expired := &authService{log: logger.Nop(), profileRepo: repo, secret: []byte("test-secret"), accessTTL: -time.Minute, domain: DefaultInstitutionalDomain}
	stale, err := expired.Login(ctx, "ana@correo.uss.cl", "secreto1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	other := NewAuthService(nil, logger.Nop(), repo, AuthConfig{JWTSecret: "other-secret"})
	fresh, err := other.Login(ctx, "ana@correo.uss.cl", "secreto1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	auth := newTestAuth(repo)
	for name, tok := range map[string]string{
		"expired":      stale,
		"wrong_secret": fresh,
		"garbage":      "not.a.token",
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.SetContextFromToken(ctx, tok)
			if !errors.Is(err, pkgerrors.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestCustomInstitutionalDomain(t *testing.T) {
	auth := NewAuthService(nil, logger.Nop(), newFakeProfileRepo(), AuthConfig{JWTSecret: "x", InstitutionalDomain: "uss.cl"})
	_, err := auth.Register(context.Background(), RegisterInput{Email: "a@gmail.com", Password: "secreto1"})
	if err == nil || !strings.Contains(err.Error(), "(@uss.cl)") {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := auth.Register(context.Background(), RegisterInput{Email: "a@uss.cl", Password: "secreto1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
}
