package api

import (
	"errors"
	"net/http"
	"xendpal/file-api/security"
	"xendpal/file-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type demoLoginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) DemoLogin(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data demoLoginBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	user, err := a.Accounts.DemoLogin(data.Email, data.Password)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "Forbidden",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Demo login failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	accessToken, refreshToken, err := security.IssueTokens(user.Email)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to issue tokens", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}
