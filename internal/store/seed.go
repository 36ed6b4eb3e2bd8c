package store

import (
	"context"
	"fmt"
)

// DefaultAdminNickname and DefaultAdminPIN describe the account created on
// a fresh database.
const (
	DefaultAdminNickname = "Admin"
	DefaultAdminPIN      = "1234"
)

var defaultRoles = []struct {
	name       string
	multiplier float64
}{
	{"Admin", 1.0},
	{"Contributor", 1.0},
	{"Teenager", 1.2},
	{"Child", 1.5},
}

// Seed creates the default roles and, when no user exists yet, an admin
// account with the given PIN hash. It is safe to run repeatedly.
func Seed(ctx context.Context, db DBTX, adminPINHash string) error {
	roles := NewRoleStore(db)
	for _, dr := range defaultRoles {
		existing, err := roles.GetByName(ctx, dr.name)
		if err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}
		if existing != nil {
			continue
		}
		if _, err := roles.Create(ctx, dr.name, dr.multiplier); err != nil {
			return fmt.Errorf("seed role %q: %w", dr.name, err)
		}
	}

	users := NewUserStore(db)
	all, err := users.List(ctx)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if len(all) > 0 {
		return nil
	}

	admin, err := roles.GetByName(ctx, "Admin")
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if _, err := users.Create(ctx, DefaultAdminNickname, adminPINHash, admin.ID); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
