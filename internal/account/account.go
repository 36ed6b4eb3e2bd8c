// Package account manages roles and household users, including PIN login.
package account

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/chorechart/internal/apperr"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
	"github.com/dukerupert/chorechart/internal/validate"
)

// ErrInvalidCredentials is returned by Login for an unknown nickname or a
// wrong PIN. The two cases are not distinguished.
var ErrInvalidCredentials = errors.New("invalid nickname or PIN")

var accountValidate = validate.New()

func init() {
	accountValidate.Register("pin", func(fl validator.FieldLevel) bool {
		return isPIN(fl.Field().String())
	}, "must be exactly 4 digits")
}

type RoleDefinition struct {
	Name       string  `json:"name" validate:"required,max=50"`
	Multiplier float64 `json:"multiplier" validate:"gte=0.1,lte=10"`
}

type UserDefinition struct {
	Nickname string `json:"nickname" validate:"required,max=50"`
	PIN      string `json:"pin" validate:"pin"`
	RoleID   int64  `json:"role_id" validate:"required"`
}

type Service struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewService(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// HashPIN returns the bcrypt hash stored for a 4-digit PIN.
func HashPIN(pin string) (string, error) {
	if !isPIN(pin) {
		return "", apperr.Validationf("pin must be exactly 4 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) ListRoles(ctx context.Context) ([]model.Role, error) {
	return store.NewRoleStore(s.db).List(ctx)
}

func (s *Service) CreateRole(ctx context.Context, def RoleDefinition) (*model.Role, error) {
	def.Name = strings.TrimSpace(def.Name)
	if err := accountValidate.Struct(&def); err != nil {
		return nil, err
	}
	var created *model.Role
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		roles := store.NewRoleStore(tx)
		existing, err := roles.GetByName(ctx, def.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflictf("role %q already exists", def.Name)
		}
		created, err = roles.Create(ctx, def.Name, def.Multiplier)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateRole changes a role's multiplier. Points already awarded keep the
// multiplier recorded on their ledger entry.
func (s *Service) UpdateRole(ctx context.Context, id int64, multiplier float64) (*model.Role, error) {
	if err := accountValidate.Var("multiplier", multiplier, "gte=0.1,lte=10"); err != nil {
		return nil, err
	}
	var updated *model.Role
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		roles := store.NewRoleStore(tx)
		existing, err := roles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.NotFoundf("role %d not found", id)
		}
		updated, err = roles.UpdateMultiplier(ctx, id, multiplier)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteRole removes a role. Users holding it move to reassignTo, which is
// required when there are any. Tasks assigned to the role become
// unassigned. It returns the number of users moved.
func (s *Service) DeleteRole(ctx context.Context, id int64, reassignTo *int64) (int64, error) {
	var moved int64
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		roles := store.NewRoleStore(tx)
		users := store.NewUserStore(tx)

		existing, err := roles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.NotFoundf("role %d not found", id)
		}

		count, err := users.CountByRole(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			if reassignTo == nil {
				return apperr.Conflictf("role %q has %d users; reassign_to is required", existing.Name, count)
			}
			if *reassignTo == id {
				return apperr.Validationf("reassign_to must differ from the deleted role")
			}
			target, err := roles.GetByID(ctx, *reassignTo)
			if err != nil {
				return err
			}
			if target == nil {
				return apperr.NotFoundf("role %d not found", *reassignTo)
			}
			if moved, err = users.ReassignRole(ctx, id, *reassignTo); err != nil {
				return err
			}
		}

		if _, err := store.NewTaskStore(tx).Unassign(ctx, id); err != nil {
			return err
		}
		return roles.Delete(ctx, id)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("deleted role", "role_id", id, "users_moved", moved)
	return moved, nil
}

func (s *Service) CountRoleUsers(ctx context.Context, id int64) (int, error) {
	return store.NewUserStore(s.db).CountByRole(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return store.NewUserStore(s.db).List(ctx)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*model.UserWithRole, error) {
	u, err := store.NewUserStore(s.db).GetWithRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFoundf("user %d not found", id)
	}
	return u, nil
}

func (s *Service) CreateUser(ctx context.Context, def UserDefinition) (*model.User, error) {
	def.Nickname = strings.TrimSpace(def.Nickname)
	if err := accountValidate.Struct(&def); err != nil {
		return nil, err
	}
	hash, err := HashPIN(def.PIN)
	if err != nil {
		return nil, err
	}

	var created *model.User
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		role, err := store.NewRoleStore(tx).GetByID(ctx, def.RoleID)
		if err != nil {
			return err
		}
		if role == nil {
			return apperr.NotFoundf("role %d not found", def.RoleID)
		}
		users := store.NewUserStore(tx)
		existing, err := users.GetByNickname(ctx, def.Nickname)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflictf("nickname %q is taken", def.Nickname)
		}
		created, err = users.Create(ctx, def.Nickname, hash, def.RoleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Login checks a nickname and PIN pair.
func (s *Service) Login(ctx context.Context, nickname, pin string) (*model.User, error) {
	users := store.NewUserStore(s.db)
	u, err := users.GetByNickname(ctx, strings.TrimSpace(nickname))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	hash, err := users.GetPINHash(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func isPIN(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
