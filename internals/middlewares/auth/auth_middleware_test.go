package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"lurnex_backend/internals/constants"
	accModel "lurnex_backend/internals/features/users/accounts/model"
	authService "lurnex_backend/internals/features/users/auth/service"
	"lurnex_backend/internals/testutil"
)

const secret = "gate-secret"

func TestAuthMiddleware(t *testing.T) {
	db := testutil.NewDB(t)
	store := authService.NewDBRevocationStore(db)
	student := testutil.CreateStudent(t, db, "s", 1, nil)
	pending := testutil.CreateStudent(t, db, "p", 1, nil)
	db.Model(&accModel.AccountModel{}).Where("id = ?", pending.ID).Update("status", constants.StatusPending)
	trainer := testutil.CreateTrainer(t, db, "t")

	app := fiber.New()
	gate := AuthMiddleware(GateConfig{Secret: secret, DB: db, Revocations: store})
	app.Get("/any", gate, func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("userRole").(string))
	})
	app.Get("/trainer", gate, OnlyRoles("trainers only", constants.RoleTrainer), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	issue := func(id accModel.AccountModel, role string, ttl time.Duration) string {
		tok, _, err := authService.IssueAccessToken(secret, id.ID, role, time.Now(), ttl)
		if err != nil {
			t.Fatal(err)
		}
		return tok
	}
	revoked := issue(student, constants.RoleStudent, time.Hour)
	if err := store.Revoke(context.Background(), revoked, time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"no token", "/any", "", fiber.StatusUnauthorized},
		{"garbage", "/any", "abc.def.ghi", fiber.StatusUnauthorized},
		{"expired", "/any", issue(student, constants.RoleStudent, -time.Hour), fiber.StatusUnauthorized},
		{"revoked", "/any", revoked, fiber.StatusUnauthorized},
		{"pending student", "/any", issue(pending, constants.RoleStudent, time.Hour), fiber.StatusForbidden},
		{"student ok", "/any", issue(student, constants.RoleStudent, time.Hour), fiber.StatusOK},
		{"student on trainer route", "/trainer", issue(student, constants.RoleStudent, time.Hour), fiber.StatusForbidden},
		{"trainer on trainer route", "/trainer", issue(trainer, constants.RoleTrainer, time.Hour), fiber.StatusNoContent},
		{"deleted account", "/any", issue(accModel.AccountModel{ID: [16]byte{9}}, constants.RoleAdmin, time.Hour), fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}

func TestExtractBearerTokenFallsBackToCookie(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		tok, err := extractBearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString(err.Error())
		}
		return c.SendString(tok)
	})
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "access_token=cookie-tok")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
