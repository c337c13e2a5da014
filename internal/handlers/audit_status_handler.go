package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smarttransit/route-ledger/internal/services"
)

// AuditScheduler exposes the state of the scheduled ledger audit
type AuditScheduler interface {
	LastReport() *services.AuditReport
	GetJobStatus() map[string]interface{}
}

// AuditStatusHandler returns GET /api/auditStatus. A nil scheduler means
// AUDIT_SCHEDULE is unset.
func AuditStatusHandler(scheduler AuditScheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if scheduler == nil {
			c.JSON(http.StatusOK, gin.H{"scheduled": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"scheduled":  true,
			"jobs":       scheduler.GetJobStatus(),
			"lastReport": scheduler.LastReport(),
		})
	}
}
