package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"baasbox-client/internal/middleware"
	"baasbox-client/internal/model"
	"baasbox-client/internal/store"
)

type AdminHandler struct {
	Store *store.Store
}

func (h *AdminHandler) Activate(c *gin.Context) {
	h.setStatus(c, model.UserStatusActive)
}

func (h *AdminHandler) Suspend(c *gin.Context) {
	h.setStatus(c, model.UserStatusSuspended)
}

func (h *AdminHandler) setStatus(c *gin.Context, status string) {
	caller, ok := middleware.UsernameFromContext(c)
	if !ok {
		middleware.RespondError(c, http.StatusUnauthorized, "Authentication info not valid or not provided", middleware.CodeAuthInvalid)
		return
	}
	acc, ok := h.Store.GetAccount(caller)
	if !ok || !acc.HasRole(model.RoleAdministrator) {
		middleware.RespondError(c, http.StatusForbidden, "User "+caller+" is not an administrator", "")
		return
	}

	target := c.Param("username")
	if _, err := h.Store.SetStatus(target, status, time.Now().UnixMilli()); err != nil {
		middleware.RespondError(c, http.StatusNotFound, "User "+target+" does not exist", "")
		return
	}
	respondOK(c, "")
}
