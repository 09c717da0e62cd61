package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"baasbox-client/internal/auth"
	"baasbox-client/internal/middleware"
	"baasbox-client/internal/model"
	"baasbox-client/internal/store"
)

const signUpDateLayout = "2006-01-02T15:04:05.000-0700"

type UserHandler struct {
	Store       *store.Store
	TokenConfig auth.TokenConfig
	AppCode     string
}

type signUpBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UserHandler) SignUp(c *gin.Context) {
	var body signUpBody
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.RespondError(c, http.StatusBadRequest, "Invalid request", "")
		return
	}
	if body.Username == "" || body.Password == "" {
		middleware.RespondError(c, http.StatusBadRequest, "Username and password are required", "")
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		middleware.RespondError(c, http.StatusInternalServerError, "Password hashing failed", "")
		return
	}
	acc, err := h.Store.CreateAccount(body.Username, hash, []string{model.RoleRegistered}, time.Now().UnixMilli())
	if errors.Is(err, store.ErrUserExists) {
		middleware.RespondError(c, http.StatusBadRequest, "Error signing up: user "+body.Username+" already exists", "")
		return
	}
	if err != nil {
		middleware.RespondError(c, http.StatusInternalServerError, "Error signing up", "")
		return
	}

	h.respondLogin(c, http.StatusCreated, acc)
}

func (h *UserHandler) Login(c *gin.Context) {
	if c.PostForm("appcode") != h.AppCode {
		middleware.RespondError(c, http.StatusUnauthorized, "Invalid App Code", middleware.CodeAppCodeInvalid)
		return
	}

	username := c.PostForm("username")
	acc, ok := h.Store.GetAccount(username)
	if !ok || auth.CheckPassword(acc.PasswordHash, c.PostForm("password")) != nil {
		middleware.RespondError(c, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error(), middleware.CodeAuthInvalid)
		return
	}
	if !acc.Active() {
		middleware.RespondError(c, http.StatusUnauthorized, "User is not active", middleware.CodeAuthInvalid)
		return
	}

	h.respondLogin(c, http.StatusOK, acc)
}

func (h *UserHandler) respondLogin(c *gin.Context, status int, acc model.Account) {
	token, tokenID, err := auth.CreateToken(acc.Name, h.TokenConfig)
	if err != nil {
		middleware.RespondError(c, http.StatusInternalServerError, "Token creation failed", "")
		return
	}
	h.Store.AddSession(tokenID, acc.Name)

	c.JSON(status, model.LoginResult{
		Result: "ok",
		Data: model.LoginData{
			User:       acc.User(),
			SignUpDate: time.UnixMilli(acc.SignUpAt).UTC().Format(signUpDateLayout),
			Session:    token,
		},
		HTTPCode: status,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	tokenID, ok := middleware.TokenIDFromContext(c)
	if !ok {
		middleware.RespondError(c, http.StatusUnauthorized, "Authentication info not valid or not provided", middleware.CodeAuthInvalid)
		return
	}
	h.Store.RevokeSession(tokenID)
	respondOK(c, "user logged out")
}

func (h *UserHandler) SuspendMe(c *gin.Context) {
	username, ok := middleware.UsernameFromContext(c)
	if !ok {
		middleware.RespondError(c, http.StatusUnauthorized, "Authentication info not valid or not provided", middleware.CodeAuthInvalid)
		return
	}
	if _, err := h.Store.SetStatus(username, model.UserStatusSuspended, time.Now().UnixMilli()); err != nil {
		middleware.RespondError(c, http.StatusNotFound, "User not found", "")
		return
	}
	respondOK(c, "")
}

func respondOK(c *gin.Context, data string) {
	c.JSON(http.StatusOK, gin.H{"result": "ok", "data": data, "http_code": http.StatusOK})
}
