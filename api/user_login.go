package api

import (
	"net/http"
	"xendpal/file-api/security"
	"xendpal/file-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type googleLoginBody struct {
	Code string `json:"code"`
}

// GoogleLogin handles the callback leg of the provider login: the
// frontend posts the authorization code, we resolve it to a profile
// and hand back our own tokens.
func (a *API) GoogleLogin(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data googleLoginBody
	if err := c.ShouldBind(&data); err != nil || data.Code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No authorization code provided",
			"requestID": requestID,
		})
		return
	}

	profile := service.ExchangeGoogleCode(data.Code)

	// A profile without a subject identifier is no login at all
	if profile == nil || profile.Sub == "" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "Not authorized to perform requested action",
			"requestID": requestID,
		})
		return
	}

	user, err := a.Accounts.ResolveOrCreate(profile)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to resolve user account", zap.Error(err), zap.String("requestID", requestID))
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

// GoogleRedirect sends the browser to the provider authorization URL.
func (a *API) GoogleRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, service.GoogleAuthURL())
}
