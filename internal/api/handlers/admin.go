package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodiespace-backend/internal/services"
	"github.com/princeprakhar/foodiespace-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Dashboard stats retrieved successfully", stats)
}

func (h *AdminHandler) ReconcileFavorites(c *gin.Context) {
	result, err := h.adminService.ReconcileFavorites(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Favorites reconciled", result)
}
