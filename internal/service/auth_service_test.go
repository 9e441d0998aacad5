package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"etc_backend/internal/domain"
	"etc_backend/internal/repository/memory"
)

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	store := memory.NewStore()
	svc := NewAuthService(store.Users(), "secret", time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "tram01", Password: "matkhau123", Station: "BOT Pháp Vân"})
	if err != nil {
		t.Fatal(err)
	}
	if user.Password != "" || user.Role != domain.RoleOperator || user.Station.String != "BOT Pháp Vân" {
		t.Fatalf("unexpected user %+v", user)
	}
	stored, err := store.Users().FindByUsername(ctx, "tram01")
	if err != nil || stored.Password == "matkhau123" {
		t.Fatal("password must be stored hashed")
	}

	if _, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "tram01", Password: "khac123"}); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("duplicate register err = %v", err)
	}

	resp, err := svc.Login(ctx, domain.LoginUserDTO{Username: "tram01", Password: "matkhau123"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Station != "BOT Pháp Vân" || resp.Role != domain.RoleOperator {
		t.Fatalf("unexpected auth response %+v", resp)
	}

	claims, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Username != "tram01" || claims.Station != "BOT Pháp Vân" || claims.Issuer != tokenIssuer {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if id, err := claims.UserID(); err != nil || id != user.ID {
		t.Fatalf("subject = %q, want %d", claims.Subject, user.ID)
	}

	if _, err := svc.Login(ctx, domain.LoginUserDTO{Username: "tram01", Password: "sai"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.Login(ctx, domain.LoginUserDTO{Username: "nobody", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestAuthServiceValidateTokenRejects(t *testing.T) {
	svc := NewAuthService(memory.NewStore().Users(), "secret", -time.Hour)
	other := NewAuthService(memory.NewStore().Users(), "other", time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "a", Password: "pw1234"}); err != nil {
		t.Fatal(err)
	}
	expired, err := svc.Login(ctx, domain.LoginUserDTO{Username: "a", Password: "pw1234"})
	if err != nil {
		t.Fatal(err)
	}

	for name, token := range map[string]string{"expired": expired.Token, "malformed": "abc.def"} {
		if _, err := svc.ValidateToken(token); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("%s: err = %v, want ErrTokenInvalid", name, err)
		}
	}
	if _, err := other.ValidateToken(expired.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("wrong secret: err = %v", err)
	}
}
