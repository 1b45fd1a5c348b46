package api

import (
	"errors"
	"net/http"
	"xendpal/file-api/model"
	"xendpal/file-api/service"
	"xendpal/file-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type shareBody struct {
	UploadID       string `json:"upload_id"`
	RecipientEmail string `json:"recipient_email"`
	Permission     string `json:"permission"`
	Description    string `json:"description"`
}

func (a *API) ShareUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userEmail := c.MustGet("userEmail").(string)

	var data shareBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.UploadID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "upload_id field can't be empty",
			"requestID": requestID,
		})
		return
	}

	if err := validators.EmailValidator(data.RecipientEmail); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	var user model.User
	if err := a.DB.Where("email = ?", userEmail).First(&user).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load user", zap.Error(err))
		return
	}

	err := a.Shares.Share(&user, data.UploadID, data.RecipientEmail, data.Permission, data.Description)
	if err != nil {
		if errors.Is(err, service.ErrNotOwned) {
			// Not-found and not-owned answer the same so upload IDs can't
			// be probed
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Upload not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to share upload", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusOK)
}
