package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"baasbox-client/internal/auth"
	"baasbox-client/internal/config"
	"baasbox-client/internal/server"
	"baasbox-client/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatal(err)
	}

	gin.SetMode(cfg.GinMode)
	st := store.NewWithOptions(store.Options{UsersStateFile: cfg.UsersStateFile})
	if err := server.SeedAdmin(st, cfg.AdminUsername, cfg.AdminPassword, time.Now().UnixMilli()); err != nil {
		log.Fatal(err)
	}

	tokenCfg := auth.TokenConfig{
		Secret: cfg.MasterSecret,
		Expiry: cfg.TokenExpiry,
		Issuer: "baasbox-fake",
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := server.NewRouter(server.Deps{Store: st, TokenConfig: tokenCfg, AppCode: cfg.AppCode})
	log.Printf("listening on %s (appcode %s)", fmt.Sprintf(":%d", cfg.Port), cfg.AppCode)
	if err := server.Run(ctx, cfg, router); err != nil {
		log.Fatal(err)
	}
	log.Printf("shut down")
}
