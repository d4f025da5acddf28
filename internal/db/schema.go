package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ecommerce/internal/hash"
	"github.com/Skotchmaster/ecommerce/internal/models"
)

func tables() []any {
	return []any{&models.Product{}, &models.User{}}
}

func CreateTables(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(tables()...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func DropTables(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Migrator().DropTable(tables()...); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

// Seed inserts the demo catalog and two accounts, user1@email.com (admin)
// and user2@email.com, both with password 123456.
func Seed(ctx context.Context, db *gorm.DB) error {
	pw, err := hash.HashPassword("123456")
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	desc := "Product 1 desc"
	price1, stock1 := 140.54, 15
	price2, stock2 := 15.99, 5
	products := []models.Product{
		{Name: "Product 1", Description: &desc, Price: &price1, Stock: &stock1},
		{Name: "Product 2", Price: &price2, Stock: &stock2},
	}

	name1, name2 := "User 1", "User 2"
	users := []models.User{
		{Name: &name1, Email: "user1@email.com", Password: pw, IsAdmin: true},
		{Name: &name2, Email: "user2@email.com", Password: pw},
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		return nil
	})
}
