package seed

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kokoleng91-netizen/shop-backend/internal/hash"
	"github.com/kokoleng91-netizen/shop-backend/internal/models"
)

// Run makes sure the fixed roles exist and, when admin credentials are
// configured, that there is an admin account to manage the shop with.
func Run(ctx context.Context, db *gorm.DB, adminEmail, adminPassword string) error {
	for _, name := range []string{models.RoleAdmin, models.RoleCustomer} {
		role := models.Role{Name: name}
		if err := db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}

	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", adminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("seed admin lookup: %w", err)
	}

	var adminRole models.Role
	if err := db.WithContext(ctx).Where("name = ?", models.RoleAdmin).First(&adminRole).Error; err != nil {
		return fmt.Errorf("seed admin role lookup: %w", err)
	}

	pwHash, err := hash.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("seed admin password: %w", err)
	}

	admin := models.User{
		Username:     "admin",
		Email:        adminEmail,
		PasswordHash: pwHash,
		RoleID:       adminRole.ID,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	return nil
}
