package account

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dukerupert/chorechart/internal/apperr"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

// FallbackLanguage is used when no household default has been stored.
const FallbackLanguage = "en"

// languageTag limits languages to the ones the dashboard ships.
const languageTag = "oneof=en de"

type LanguageSetting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DefaultLanguage returns the household language.
func (s *Service) DefaultLanguage(ctx context.Context) (*LanguageSetting, error) {
	v, ok, err := store.NewSettingsStore(s.db).Lookup(ctx, store.KeyDefaultLanguage)
	if err != nil {
		return nil, err
	}
	if !ok {
		v = FallbackLanguage
	}
	return &LanguageSetting{Key: store.KeyDefaultLanguage, Value: v}, nil
}

func (s *Service) SetDefaultLanguage(ctx context.Context, lang string) (*LanguageSetting, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if err := accountValidate.Var("value", lang, languageTag); err != nil {
		return nil, err
	}
	if err := store.NewSettingsStore(s.db).Set(ctx, store.KeyDefaultLanguage, lang); err != nil {
		return nil, err
	}
	s.logger.Info("default language changed", "language", lang)
	return &LanguageSetting{Key: store.KeyDefaultLanguage, Value: lang}, nil
}

// SetUserLanguage sets a user's language. Nil or blank clears it so the
// household default applies.
func (s *Service) SetUserLanguage(ctx context.Context, id int64, lang *string) (*model.User, error) {
	var value *string
	if lang != nil {
		v := strings.ToLower(strings.TrimSpace(*lang))
		if v != "" {
			if err := accountValidate.Var("preferred_language", v, languageTag); err != nil {
				return nil, err
			}
			value = &v
		}
	}

	var updated *model.User
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := store.NewUserStore(tx)
		u, err := users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return apperr.NotFoundf("user %d not found", id)
		}
		if err := users.SetLanguage(ctx, id, value); err != nil {
			return err
		}
		updated, err = users.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
