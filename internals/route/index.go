package routes

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lurnex_backend/internals/configs"
	"lurnex_backend/internals/constants"
	assessService "lurnex_backend/internals/features/assessments/service"
	batchService "lurnex_backend/internals/features/classes/batches/service"
	sessService "lurnex_backend/internals/features/classes/class_sessions/service"
	ledgerService "lurnex_backend/internals/features/ledger/service"
	misService "lurnex_backend/internals/features/mis/service"
	accountService "lurnex_backend/internals/features/users/accounts/service"
	authService "lurnex_backend/internals/features/users/auth/service"
	"lurnex_backend/internals/helpers/events"
	"lurnex_backend/internals/helpers/meeting"
	"lurnex_backend/internals/helpers/notify"
	authMiddleware "lurnex_backend/internals/middlewares/auth"
	routeDetails "lurnex_backend/internals/route/details"
)

var startTime time.Time

// Deps are the process-wide collaborators built in main.
type Deps struct {
	DB          *gorm.DB
	Config      configs.AppConfig
	Meetings    meeting.Provider
	Notifier    notify.Dispatcher
	Events      events.Publisher
	Revocations authService.RevocationStore
}

func SetupRoutes(app *fiber.App, deps Deps) {
	startTime = time.Now()
	cfg := deps.Config
	validate := validator.New()

	ledger := ledgerService.New(deps.DB)
	registry := sessService.New(deps.DB, deps.Meetings, ledger, deps.Notifier, deps.Events, sessService.Options{
		Workers:   cfg.MeetingWorkers,
		DefaultTZ: cfg.SessionTZ,
	})
	auth := authService.NewAuthService(deps.DB, ledger, deps.Revocations, cfg.JWTSecret, cfg.JWTTTL)
	accounts := accountService.New(deps.DB, ledger, deps.Notifier)
	batches := batchService.New(deps.DB)
	mis := misService.New(deps.DB, registry)
	assessments := assessService.New(deps.DB)

	gate := authMiddleware.AuthMiddleware(authMiddleware.GateConfig{
		Secret:      cfg.JWTSecret,
		DB:          deps.DB,
		Revocations: auth.Revocations,
	})
	adminOnly := authMiddleware.OnlyRoles(constants.RoleErrorAdmin("this resource"), constants.AdminOnly...)

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, deps.DB)

	// ===================== AUTH / ME =====================
	log.Println("[INFO] Setting up AuthRoutes...")
	routeDetails.AuthRoutes(app, auth, validate, gate)

	// ===================== GROUPS =====================
	log.Println("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group("/api/admin", gate, adminOnly)

	log.Println("[INFO] Setting up MIS group (Auth + RoleCheck)...")
	misGroup := app.Group("/api/mis", gate, adminOnly)

	log.Println("[INFO] Setting up CLASSES group (Auth)...")
	classes := app.Group("/api/classes", gate)

	log.Println("[INFO] Setting up ASSESSMENTS group (Auth)...")
	assessGroup := app.Group("/api/assessments", gate)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting account routes...")
	routeDetails.UserAdminRoutes(admin, accounts, ledger, registry, validate)

	log.Println("[INFO] Mounting class routes...")
	routeDetails.ClassRoutes(admin, misGroup, classes, registry, batches, validate)

	log.Println("[INFO] Mounting MIS routes...")
	routeDetails.MISRoutes(admin, misGroup, mis, validate)

	log.Println("[INFO] Mounting assessment routes...")
	routeDetails.AssessmentRoutes(admin, assessGroup, assessments, validate)
}
