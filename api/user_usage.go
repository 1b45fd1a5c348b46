package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// YearlyUsage returns the bytes uploaded per month of the current
// calendar year as two parallel arrays, which is the shape the usage
// chart on the frontend wants.
func (a *API) YearlyUsage(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userEmail := c.MustGet("userEmail").(string)

	usage, err := a.Accounts.YearlyUsage(userEmail)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to compute yearly usage", zap.String("user_email", userEmail), zap.Error(err))
		return
	}

	months := []string{}
	usages := []int64{}

	for m := time.January; m <= time.December; m++ {
		if bytes, ok := usage[m]; ok {
			months = append(months, strconv.Itoa(int(m)))
			usages = append(usages, bytes)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"month": months,
		"usage": usages,
	})
}
