// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev operator already exists.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"expenditure-workflow/internal/config"
	"expenditure-workflow/internal/db"
	expdomain "expenditure-workflow/internal/expenditure/domain"
	exprepo "expenditure-workflow/internal/expenditure/repository"
	roledomain "expenditure-workflow/internal/role/domain"
	rolerepo "expenditure-workflow/internal/role/repository"
	"expenditure-workflow/internal/workflow"
)

const (
	devUnitID = "dev-unit-001"

	devOperatorID   = "dev-operator-001"
	devVerifierID   = "dev-verifier-001"
	devAnalystID    = "dev-analyst-001"
	devClerkID      = "dev-clerk-001"
	devTreasurerID  = "dev-treasurer-001"
	devAuthorizerID = "dev-authorizer-001"

	devRequestID = "dev-request-001"
)

type actor struct {
	id    string
	name  string
	phone string
	email string
	role  roledomain.Role
	scope string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; put it in .env or the environment")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	var exists bool
	if err := conn.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM actors WHERE id = $1)`, devOperatorID).Scan(&exists); err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if exists {
		log.Println("Seed already applied (dev operator exists). Skipping.")
		os.Exit(0)
	}

	now := time.Now().UTC()
	actors := []actor{
		{devOperatorID, "Dev Operator", "6281100001", "operator@example.com", roledomain.RoleOperator, devUnitID},
		{devVerifierID, "Dev Verifier", "6281100002", "verifier@example.com", roledomain.RoleVerifier, devUnitID},
		{devAnalystID, "Dev Analyst", "6281100003", "analyst@example.com", roledomain.RoleBudgetAnalyst, ""},
		{devClerkID, "Dev Clerk", "6281100004", "clerk@example.com", roledomain.RoleTreasuryClerk, ""},
		{devTreasurerID, "Dev Treasurer", "6281100005", "treasurer@example.com", roledomain.RoleTreasurer, ""},
		{devAuthorizerID, "Dev Authorizer", "6281100006", "authorizer@example.com", roledomain.RoleAuthorizer, ""},
	}

	for _, a := range actors {
		if _, err := conn.ExecContext(ctx, `
			INSERT INTO actors (id, name, phone, email, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			a.id, a.name, a.phone, a.email, now); err != nil {
			log.Fatalf("create actor %s: %v", a.id, err)
		}
	}

	roles := rolerepo.NewPostgresRepository(conn)
	for _, a := range actors {
		assignment := &roledomain.Assignment{
			ID:        a.id + "-role",
			ActorID:   a.id,
			Role:      a.role,
			Scope:     a.scope,
			CreatedAt: now,
		}
		if err := roles.Create(ctx, assignment); err != nil && !errors.Is(err, rolerepo.ErrDuplicateAssignment) {
			log.Fatalf("create assignment for %s: %v", a.id, err)
		}
	}

	requests := exprepo.NewPostgresRepository(conn)
	req := &expdomain.Request{
		ID:          devRequestID,
		UnitID:      devUnitID,
		Amount:      10_000_000,
		Category:    expdomain.CategoryDirect,
		Status:      workflow.StatusDraft,
		SubmitterID: devOperatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := requests.Create(ctx, req); err != nil {
		log.Fatalf("create dev request: %v", err)
	}

	log.Println("Seed applied.")
}
