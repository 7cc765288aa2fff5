package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	authRepo "lurnex_backend/internals/features/users/auth/repository"
)

// StartRevokedTokenCleanup purges revoked-token rows past their expiry on
// the given cron spec. The returned cron must be stopped on shutdown.
func StartRevokedTokenCleanup(db *gorm.DB, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() { runCleanup(db, time.Now()) }); err != nil {
		return nil, err
	}
	log.Printf("[CLEANUP] revoked token cleanup scheduled %q", spec)
	c.Start()
	return c, nil
}

func runCleanup(db *gorm.DB, now time.Time) int64 {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := authRepo.DeleteExpiredRevokedTokens(ctx, db, now)
	if err != nil {
		log.Printf("[CLEANUP ERROR] revoked tokens: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("[CLEANUP] %d expired revoked tokens removed", n)
	}
	return n
}
