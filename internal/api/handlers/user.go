package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodiespace-backend/internal/api/middleware"
	"github.com/princeprakhar/foodiespace-backend/internal/models"
	"github.com/princeprakhar/foodiespace-backend/internal/services"
	"github.com/princeprakhar/foodiespace-backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	response, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	message := "User created successfully"
	if !response.Created {
		message = "User already exists"
	}
	utils.SendSuccess(c, message, response)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetByEmail(c.Request.Context(), c.Param("email"), actor(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "User retrieved successfully", user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Users retrieved successfully", users)
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	user, err := h.userService.SetRole(c.Request.Context(), c.Param("email"), req.Role, actor(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "User role updated successfully", user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), actor(c), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Profile updated successfully", user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	response, err := h.userService.Delete(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "User deleted successfully", response)
}

func (h *UserHandler) GetFavorites(c *gin.Context) {
	reviews, err := h.userService.Favorites(c.Request.Context(), actor(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Favorite reviews retrieved successfully", reviews)
}

// actor returns the verified email set by the auth middleware.
func actor(c *gin.Context) string {
	return c.GetString(middleware.ContextUserEmail)
}
