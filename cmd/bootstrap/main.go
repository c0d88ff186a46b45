package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"nb-studio-api/internal/config"
	"nb-studio-api/internal/domain/entity"
	"nb-studio-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 迁移表结构
	fmt.Println("Running schema migration...")
	if err := dataLayer.PgClient.DB().WithContext(ctx).AutoMigrate(
		&entity.User{},
		&entity.Space{},
		&entity.Notebook{},
		&entity.NotebookVersion{},
	); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// 4. 创建首个管理员
	adminEmail := os.Getenv("BOOTSTRAP_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@nb-studio.local"
	}
	adminPassword := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123" // 生产环境请务必通过环境变量设置
	}

	userExists, err := dataLayer.UserRepo.ExistsByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("failed to check admin existence: %v", err)
	}

	var adminID string
	if !userExists {
		fmt.Printf("Creating admin user: %s...\n", adminEmail)
		admin := entity.NewUser(adminEmail, "System Admin")
		admin.Role = entity.UserRoleAdmin
		if err := admin.SetPassword(adminPassword); err != nil {
			log.Fatalf("failed to hash admin password: %v", err)
		}

		if err := dataLayer.UserRepo.Create(ctx, admin); err != nil {
			log.Fatalf("failed to create admin user: %v", err)
		}
		adminID = admin.ID
		fmt.Println("Admin user created successfully.")
	} else {
		admin, err := dataLayer.UserRepo.GetByEmail(ctx, adminEmail)
		if err != nil {
			log.Fatalf("failed to get existing admin: %v", err)
		}
		adminID = admin.ID
		fmt.Printf("Admin user %s already exists.\n", adminEmail)
	}

	// 5. 创建默认空间
	defaultSpaceName := "Default Space"
	spaces, err := dataLayer.SpaceRepo.ListByOwner(ctx, adminID)
	if err != nil {
		log.Fatalf("failed to list spaces: %v", err)
	}

	if len(spaces) == 0 {
		fmt.Printf("Creating default space: %s...\n", defaultSpaceName)
		space := entity.NewSpace(adminID, defaultSpaceName)
		space.Description = "Workspace created by bootstrap"
		if err := dataLayer.SpaceRepo.Create(ctx, space); err != nil {
			log.Fatalf("failed to create default space: %v", err)
		}
		fmt.Printf("Default space created with ID: %s\n", space.ID)
	} else {
		fmt.Printf("Admin already owns %d space(s), skipping default space.\n", len(spaces))
	}

	fmt.Println("Bootstrap completed successfully.")
}
