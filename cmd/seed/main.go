package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/Pood16/REST-API-V1/config"
	"github.com/Pood16/REST-API-V1/internal/app/model"
	"github.com/Pood16/REST-API-V1/internal/app/repository"
	"github.com/Pood16/REST-API-V1/internal/db"
	"github.com/Pood16/REST-API-V1/pkg/util"
	"gorm.io/gorm"
)

// Seeds a development catalog and an admin account.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if err := seedAdmin(); err != nil {
		log.Fatal("Failed to seed admin user:", err)
	}
	if err := seedCatalog(); err != nil {
		log.Fatal("Failed to seed catalog:", err)
	}

	fmt.Println("Seeding completed successfully!")
}

func seedAdmin() error {
	userRepo := repository.NewUserRepository(db.GetDB())

	if _, err := userRepo.FindByEmail("admin@gamestore.local"); err == nil {
		fmt.Println("Admin user already exists, skipping")
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := util.HashPassword("admin1234")
	if err != nil {
		return err
	}
	admin := &model.User{
		Email:        "admin@gamestore.local",
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         model.RoleAdmin,
	}
	if err := userRepo.Create(admin); err != nil {
		return err
	}
	fmt.Println("Created admin user: admin@gamestore.local")
	return nil
}

func seedCatalog() error {
	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())

	catalog := map[string][]model.Product{
		"PC Games": {
			{Name: "Starfall Tactics", Description: "Turn-based space strategy", Price: 29.99, Stock: 120},
			{Name: "Dungeon Forge", Description: "Co-op dungeon crawler", Price: 19.99, Stock: 80},
		},
		"Console Games": {
			{Name: "Neon Drift 2", Description: "Arcade racing sequel", Price: 49.99, Stock: 60},
			{Name: "Shadow of Aldera", Description: "Open world action RPG", Price: 59.99, Stock: 45},
		},
		"Accessories": {
			{Name: "Pro Controller", Description: "Wireless controller with back paddles", Price: 64.99, Stock: 200},
			{Name: "Gaming Headset", Description: "Closed-back headset with detachable mic", Price: 39.99, Stock: 150},
		},
	}

	for categoryName, products := range catalog {
		category, err := categoryRepo.FindBySlug(util.Slugify(categoryName))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			category = &model.Category{Name: categoryName, Slug: util.Slugify(categoryName)}
			if err := categoryRepo.Create(category); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		for i := range products {
			product := products[i]
			product.Slug = util.Slugify(product.Name)
			product.CategoryID = category.ID

			if _, err := productRepo.FindBySlug(product.Slug); err == nil {
				continue
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := productRepo.Create(&product); err != nil {
				return err
			}
			fmt.Printf("Created product: %s (%s)\n", product.Name, categoryName)
		}
	}
	return nil
}
