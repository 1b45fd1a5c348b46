package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// History returns the audit entries written for the current calendar
// day only.
func (a *API) History(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userEmail := c.MustGet("userEmail").(string)

	entries, err := a.Accounts.DayHistory(userEmail)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load user history", zap.String("user_email", userEmail), zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, entries)
}
