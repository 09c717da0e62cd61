package server

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"baasbox-client/internal/auth"
	"baasbox-client/internal/handler"
	"baasbox-client/internal/middleware"
	"baasbox-client/internal/model"
	"baasbox-client/internal/store"
)

type Deps struct {
	Store       *store.Store
	TokenConfig auth.TokenConfig
	AppCode     string
	// LoginLimiter throttles POST /login; nil builds 10 attempts a minute.
	LoginLimiter *middleware.RateLimiter
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	limiter := deps.LoginLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(10, time.Minute)
	}

	userHandler := &handler.UserHandler{Store: deps.Store, TokenConfig: deps.TokenConfig, AppCode: deps.AppCode}
	r.POST("/user", middleware.RequireAppCode(deps.AppCode), userHandler.SignUp)
	r.POST("/login", middleware.RateLimitMiddleware(limiter, middleware.LoginAttemptKey), userHandler.Login)

	protected := r.Group("/")
	protected.Use(middleware.RequireAppCode(deps.AppCode))
	protected.Use(middleware.RequireSession(deps.Store, deps.TokenConfig))
	protected.POST("/logout", userHandler.Logout)
	protected.PUT("/me/suspend", userHandler.SuspendMe)

	adminHandler := &handler.AdminHandler{Store: deps.Store}
	protected.PUT("/admin/user/activate/:username", adminHandler.Activate)
	protected.PUT("/admin/user/suspend/:username", adminHandler.Suspend)

	return r
}

// SeedAdmin makes sure an administrator account exists. An existing account
// of that name is left untouched.
func SeedAdmin(st *store.Store, username, password string, nowMillis int64) error {
	if _, ok := st.GetAccount(username); ok {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = st.CreateAccount(username, hash, []string{model.RoleAdministrator, model.RoleRegistered}, nowMillis)
	if errors.Is(err, store.ErrUserExists) {
		return nil
	}
	return err
}
