package seeds

import (
	"log"

	"gorm.io/gorm"

	accounts "lurnex_backend/internals/seeds/users/accounts"
)

// RunAllSeeds loads the account seed file. Existing emails are left alone.
func RunAllSeeds(db *gorm.DB, accountsFile string) {
	//* Accounts
	n, err := accounts.SeedAccountsFromJSON(db, accountsFile)
	if err != nil {
		log.Printf("❌ account seeds: %v", err)
		return
	}
	log.Printf("✅ %d account(s) seeded", n)
}
