package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/roadready/roadready-backend/internal/config"
	"github.com/roadready/roadready-backend/internal/model"
	"github.com/roadready/roadready-backend/internal/service"
)

// issue-token mints an identity token with the configured shared secret.
// In production tokens come from the auth provider; this exists for local
// development and the e2e suite.
func main() {
	var (
		externalID string
		admin      bool
	)
	flag.StringVar(&externalID, "subject", "", "External identity (token subject)")
	flag.BoolVar(&admin, "admin", false, "Mint an ADMIN token")
	flag.Parse()

	if externalID == "" {
		log.Fatal("-subject is required")
	}

	role := model.RoleStudent
	if admin {
		role = model.RoleAdmin
	}

	cfg := config.Load()
	authService := service.NewAuthService(cfg)

	token, err := authService.GenerateToken(externalID, role)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	fmt.Println(token)
}
