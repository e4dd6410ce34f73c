package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bazaarhub/marketplace-api/internal/config"
	"github.com/bazaarhub/marketplace-api/internal/domain"
	"github.com/bazaarhub/marketplace-api/internal/repository/postgres"
	"github.com/bazaarhub/marketplace-api/pkg/errors"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: go run cmd/create-admin/main.go <name> <email> <password>")
		fmt.Println("Example: go run cmd/create-admin/main.go \"Ravi Sharma\" admin@example.com s3cret")
		os.Exit(1)
	}

	name := os.Args[1]
	email := os.Args[2]
	password := os.Args[3]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	// Refuse a duplicate email
	if _, err := repos.User.GetByEmail(context.Background(), email); err == nil {
		fmt.Fprintf(os.Stderr, "A user with email %s already exists\n", email)
		os.Exit(1)
	} else if _, ok := err.(*errors.ErrNotFound); !ok {
		fmt.Fprintf(os.Stderr, "Failed to check existing user: %v\n", err)
		os.Exit(1)
	}

	// Hash the password
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	// Create admin user
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         domain.RoleAdmin,
	}

	if err := repos.User.Create(context.Background(), user); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create admin user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Admin user created successfully!\n\n")
	fmt.Printf("User ID: %s\n", user.ID.String())
	fmt.Printf("Name:    %s\n", user.Name)
	fmt.Printf("Email:   %s\n", user.Email)
	fmt.Printf("\nIssue a token for this user through the identity service to call the API.\n")
}
