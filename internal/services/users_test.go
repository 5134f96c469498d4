package services

import (
	"context"
	"errors"
	"testing"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	pkgerrors "github.com/acaduss/acaduss-backend/internal/pkg/errors"
	"github.com/acaduss/acaduss-backend/internal/platform/ctxutil"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

func strPtr(s string) *string { return &s }

func TestUserServiceUpdatePermissions(t *testing.T) {
	repo := newFakeProfileRepo()
	ctx := context.Background()
	ana, _ := repo.Create(ctx, nil, &types.Profile{Email: "ana@correo.uss.cl", Role: types.RoleStudent})
	luis, _ := repo.Create(ctx, nil, &types.Profile{Email: "luis@correo.uss.cl", Role: types.RoleStudent})
	admin, _ := repo.Create(ctx, nil, &types.Profile{Email: "admin@correo.uss.cl", Role: types.RoleAdmin})

	svc := NewUserService(nil, logger.Nop(), repo)
	as := func(p *types.Profile) context.Context {
		return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: p.ID, Email: p.Email, Role: p.Role})
	}

	if _, err := svc.GetMe(ctx); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("GetMe without auth: %v", err)
	}
	me, err := svc.GetMe(as(ana))
	if err != nil || me.ID != ana.ID {
		t.Fatalf("GetMe: %+v %v", me, err)
	}

	updated, err := svc.Update(as(ana), ana.ID, ProfileUpdate{FullName: strPtr("  Ana Pérez ")})
	if err != nil {
		t.Fatalf("self update: %v", err)
	}
	if updated.FullName != "Ana Pérez" {
		t.Fatalf("FullName=%q", updated.FullName)
	}

	if _, err := svc.Update(as(luis), ana.ID, ProfileUpdate{Username: strPtr("x")}); !errors.Is(err, pkgerrors.ErrForbidden) {
		t.Fatalf("update other user: %v", err)
	}
	if _, err := svc.Update(as(ana), ana.ID, ProfileUpdate{Role: strPtr(types.RoleAdmin)}); !errors.Is(err, pkgerrors.ErrForbidden) {
		t.Fatalf("self promotion: %v", err)
	}
	promoted, err := svc.Update(as(admin), luis.ID, ProfileUpdate{Role: strPtr("Teacher")})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if promoted.Role != types.RoleTeacher {
		t.Fatalf("Role=%q", promoted.Role)
	}

	if _, err := svc.Get(ctx, admin.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	all, err := svc.List(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("List: %d %v", len(all), err)
	}
}
