package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"ekehi_engine/internal/config"
	"ekehi_engine/internal/db"
	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"
	"ekehi_engine/internal/repository"
	"ekehi_engine/internal/service"
)

// Creates (or loads) a profile and prints a bearer token for it.
func main() {
	userID := flag.Int64("id", 1234567890, "user id")
	username := flag.String("username", "testuser", "username")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	admin := flag.Bool("admin", false, "issue an operator token (role=admin)")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	defer logger.Sync()
	service.InitJWT(cfg.JWTSecret)

	var stores service.Stores
	if cfg.DatabaseURL != "" {
		pool := db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		stores = service.PostgresStores(pool, nil)
	} else {
		logger.Warn("DATABASE_URL not set, the profile only lives in this process")
		stores = service.MemoryStores(repository.NewMemoryStore(), nil)
	}
	engine := service.NewEngine(stores, cfg.Rules(), events.NewLocalBus(), nil)

	ctx := context.Background()
	p, created, err := engine.Profiles.EnsureProfile(ctx, *userID, *username)
	if err != nil {
		logger.Fatal("create profile failed", "error", err)
	}
	logger.Info("profile ready", "user_id", p.UserID, "created", created, "referral_code", p.ReferralCode, "total_coins", p.TotalCoins)

	role := ""
	if *admin {
		role = service.RoleAdmin
	}
	token, err := service.GenerateJWTWithRole(p.UserID, p.Username, role, *ttl)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}
	fmt.Println(token)
}
