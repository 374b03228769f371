package devbackend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/sahoadmin/models"
	"github.com/princinho/sahoadmin/utils"
	"github.com/rs/zerolog/log"
)

type SeedUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
}

func SeedAdminUser(ctx context.Context, users UserRepository, su SeedUser) error {
	email := strings.ToLower(strings.TrimSpace(su.Email))
	if email == "" || su.Password == "" {
		return fmt.Errorf("missing ADMIN_EMAIL or ADMIN_PASSWORD env vars")
	}
	role := su.Role
	if !role.Valid() {
		role = models.RoleAdmin
	}

	hash, err := utils.HashPassword(su.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	created, err := users.Insert(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    su.FirstName,
		LastName:     su.LastName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if created {
		log.Info().Str("email", email).Str("role", string(role)).Msg("admin user seeded")
	} else {
		log.Info().Str("email", email).Msg("admin user already exists")
	}
	return nil
}

// DefaultCategories is the catalogue the development backend starts with.
func DefaultCategories() []models.Category {
	names := [][2]string{
		{"Garden furniture", "Mobilier de grădină"},
		{"Lighting", "Iluminat"},
		{"Kitchen", "Bucătărie"},
		{"Textiles", "Textile"},
		{"Decorations", "Decorațiuni"},
	}
	out := make([]models.Category, len(names))
	for i, n := range names {
		out[i] = models.Category{
			ID:        int64(i + 1),
			NameEN:    n[0],
			NameRO:    n[1],
			Slug:      utils.GenerateSlug(n[0]),
			SortOrder: i,
		}
	}
	return out
}
