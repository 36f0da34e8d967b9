// Package main 建库与种子数据入口
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"dtf-editor-api/internal/config"
	"dtf-editor-api/internal/domain/entity"
	"dtf-editor-api/internal/infrastructure/persistence/postgres"
	"dtf-editor-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	app, cleanup, err := wire.InitializeBootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 1. 建表
	fmt.Println("Migrating schema...")
	db := app.PgClient.DB()
	if err := db.WithContext(ctx).AutoMigrate(
		&entity.Account{},
		&entity.CreditTransaction{},
		&entity.ProcessingJob{},
		&entity.CostRecord{},
	); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// 2. 种子账户
	accountRepo := postgres.NewAccountRepository(app.PgClient)
	seedAccounts := []struct {
		email   string
		role    entity.AccountRole
		credits int
	}{
		{"admin@dtf-editor.local", entity.AccountRoleAdmin, 0},
		{"demo@dtf-editor.local", entity.AccountRoleUser, 100},
	}

	for _, seed := range seedAccounts {
		existing, err := accountRepo.GetByEmail(ctx, seed.email)
		if err != nil {
			log.Fatalf("failed to check account %s: %v", seed.email, err)
		}
		if existing != nil {
			fmt.Printf("Account %s already exists (id=%s)\n", seed.email, existing.ID)
			continue
		}

		account := entity.NewAccount(seed.email)
		account.ID = uuid.NewString()
		account.Role = seed.role
		account.CreditsRemaining = seed.credits
		account.TotalCreditsPurchased = seed.credits
		if err := accountRepo.Create(ctx, account); err != nil {
			log.Fatalf("failed to create account %s: %v", seed.email, err)
		}
		fmt.Printf("Created account %s (id=%s, role=%s, credits=%d)\n",
			seed.email, account.ID, seed.role, seed.credits)
	}

	fmt.Println("Bootstrap completed.")
}
