package service

import (
	"context"
	"testing"

	"stockly/internal/model"
	"stockly/internal/repository"
)

func newUserService(t *testing.T) UserService {
	t.Helper()
	return NewUserService(repository.NewUserRepository(newTestDB(t)))
}

func TestCreateUserFirstAccountBecomesAdmin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	first, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "owner", Email: "owner@example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if first.Role != model.RoleAdmin {
		t.Errorf("first user role = %q, want admin", first.Role)
	}

	second, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "clerk", Email: "clerk@example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if second.Role != model.RoleStaff {
		t.Errorf("second user role = %q, want staff", second.Role)
	}
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "owner", Email: "owner@example.com", Password: "secret1",
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "owner", Email: "other@example.com", Password: "secret1",
	}); err == nil {
		t.Error("duplicate username accepted")
	}
	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "other", Email: "owner@example.com", Password: "secret1",
	}); err == nil {
		t.Error("duplicate email accepted")
	}
}

func TestLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "owner", Email: "owner@example.com", Password: "secret1",
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	resp, err := svc.Login(ctx, LoginUserRequest{Email: "owner@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" {
		t.Error("empty token")
	}

	if _, err := svc.Login(ctx, LoginUserRequest{Email: "owner@example.com", Password: "wrong"}); err == nil {
		t.Error("wrong password accepted")
	}
	if _, err := svc.Login(ctx, LoginUserRequest{Email: "nobody@example.com", Password: "secret1"}); err == nil {
		t.Error("unknown email accepted")
	}
}
