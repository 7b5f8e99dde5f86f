package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodiespace-backend/internal/models"
	"github.com/princeprakhar/foodiespace-backend/internal/services"
	"github.com/princeprakhar/foodiespace-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), actor(c), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Review submitted for moderation", review)
}

func (h *ReviewHandler) GetApprovedReviews(c *gin.Context) {
	reviews, err := h.reviewService.GetApprovedReviews(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Reviews retrieved successfully", reviews)
}

func (h *ReviewHandler) GetMyReviews(c *gin.Context) {
	reviews, err := h.reviewService.GetUserReviews(c.Request.Context(), actor(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Reviews retrieved successfully", reviews)
}

func (h *ReviewHandler) SearchReviews(c *gin.Context) {
	reviews, err := h.reviewService.SearchReviews(c.Request.Context(), c.Query("q"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Reviews retrieved successfully", reviews)
}

func (h *ReviewHandler) GetPendingReviews(c *gin.Context) {
	reviews, err := h.reviewService.GetPendingReviews(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Pending reviews retrieved successfully", reviews)
}

func (h *ReviewHandler) GetAllReviews(c *gin.Context) {
	reviews, err := h.reviewService.GetAllReviews(c.Request.Context(), c.Query("status"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Reviews retrieved successfully", reviews)
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	review, err := h.reviewService.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Review retrieved successfully", review)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	var req models.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), c.Param("id"), actor(c), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Review updated successfully", review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	if err := h.reviewService.DeleteReview(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Review deleted successfully", nil)
}

func (h *ReviewHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid status. Must be approved, rejected, or pending")
		return
	}

	review, err := h.reviewService.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Review "+review.Status+" successfully", review)
}

func (h *ReviewHandler) ToggleFavorite(c *gin.Context) {
	response, err := h.reviewService.ToggleFavorite(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	message := "Review added to favorites"
	if !response.IsFavorite {
		message = "Review removed from favorites"
	}
	utils.SendSuccess(c, message, response)
}

func (h *ReviewHandler) UploadPhoto(c *gin.Context) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		utils.SendValidationError(c, "photo file is required")
		return
	}
	defer file.Close()

	review, err := h.reviewService.UploadPhoto(c.Request.Context(), c.Param("id"), actor(c), file, header)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Photo uploaded successfully", review)
}
