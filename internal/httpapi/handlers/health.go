package handlers

import "github.com/gin-gonic/gin"

// ServiceVersion is reported on every health response. Bumped by hand on
// release, matching the teacher's health handler shape.
const ServiceVersion = "0.1.0"

// Health answers GET /health, /ping, /v1/ping per spec.md §6.
func Health(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"service": "ingresskit-repair",
		"version": ServiceVersion,
	})
}
