package api

import (
	"net/http"
	"xendpal/file-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) UserInfo(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userEmail := c.MustGet("userEmail").(string)

	var user model.User

	err := a.DB.
		Where("email = ?", userEmail).
		First(&user).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load user info", zap.String("user_email", userEmail), zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":      user.Name,
		"picture":   user.Picture,
		"space":     user.Space,
		"max_space": user.MaxSpace,
	})
}
