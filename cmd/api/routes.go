package main

import (
	"database/sql"
	"time"

	"github.com/callaback/callaback-dashboard/internal/httpapi"
	"github.com/callaback/callaback-dashboard/internal/rbac"
	"github.com/callaback/callaback-dashboard/internal/webhook"
	"github.com/callaback/callaback-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, db *sql.DB, wh *webhook.Handler, api httpapi.Handlers, authMW gin.HandlerFunc) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public). Twilio posts form-encoded events here;
	// handlers always answer 200 so the provider does not retry or break
	// the call flow.
	// NOTE: protect with Twilio signature validation at the edge in production.
	wb := r.Group("/webhooks/twilio")
	{
		wb.POST("/voice", wh.HandleInboundCall)
		wb.POST("/voice/completed", wh.HandleCallCompleted)
		wb.POST("/voice/voicemail", wh.HandleVoicemailCompleted)
		wb.POST("/sms", wh.HandleInboundSMS)
		wb.POST("/sms/status", wh.HandleSMSStatus)
	}

	// Auth (public).
	r.POST("/v1/auth/login", api.Login)
	r.POST("/v1/auth/refresh", api.Refresh)

	// Protected dashboard API.
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", api.Me)

		clients := v1.Group("/clients")
		{
			clients.GET("", api.ListClients)
			clients.GET("/:id", api.GetClient)
			clients.GET("/:id/summary", api.ClientSummary)
			clients.POST("", rbac.RequireAnyRole(rbac.RoleAdmin), api.CreateClient)
			clients.PUT("/:id", rbac.RequireAnyRole(rbac.RoleAdmin), api.UpdateClient)
		}

		v1.GET("/interactions", api.ListInteractions)

		contacts := v1.Group("/contacts")
		{
			contacts.GET("", api.ListContacts)
			contacts.POST("", api.CreateContact)
			contacts.PUT("/:id", api.UpdateContact)
			contacts.DELETE("/:id", api.DeleteContact)
		}

		leads := v1.Group("/leads")
		{
			leads.GET("", api.ListLeads)
			leads.POST("", api.CreateLead)
			leads.PATCH("/:id", api.UpdateLead)
			leads.DELETE("/:id", api.DeleteLead)
		}

		v1.POST("/sms/send", rbac.RequireAnyRole(rbac.RoleOperator), api.SendSMS)

		v1.GET("/audit", rbac.RequireAnyRole(rbac.RoleAdmin), api.RecentAudit)
	}
}
