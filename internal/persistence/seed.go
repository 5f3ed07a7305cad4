package persistence

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-api/internal/auth"
	"github.com/spec-kit/helpdesk-api/internal/domain"
)

type seedUser struct {
	email    string
	password string
	role     domain.Role
}

var seedUsers = []seedUser{
	{email: "user@example.com", password: "userpass", role: domain.RoleUser},
	{email: "agent@example.com", password: "agentpass", role: domain.RoleAgent},
	{email: "admin@example.com", password: "adminpass", role: domain.RoleAdmin},
}

// SeedUsers inserts the default accounts on first run. A non-empty users
// table means the seed already happened.
func SeedUsers(ctx context.Context, pool *pgxpool.Pool, bcryptCost int, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping seed")
		return nil
	}

	var count int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, su := range seedUsers {
		hash, err := auth.HashPassword(su.password, bcryptCost)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO users (email, password_hash, role) VALUES ($1, $2, $3)`,
			su.email, hash, su.role,
		); err != nil {
			return err
		}
	}

	logger.Info("seeded default users", zap.Int("count", len(seedUsers)))
	return nil
}
