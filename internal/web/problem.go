// Package web carries the HTTP plumbing shared by the resource
// services: problem-details error bodies and the bearer-token
// authentication middleware.
package web

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Problem is the error body every service returns, following the
// problem-details shape.
type Problem struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Title     string    `json:"title"`
	Detail    string    `json:"detail"`
	Instance  string    `json:"instance"`
}

// WriteProblem aborts the request with a problem+json body. Responses
// are localized for the forum's audience, hence the fixed
// Content-Language.
func WriteProblem(c *gin.Context, status int, title, detail string) {
	c.Header("Content-Type", "application/problem+json")
	c.Header("Content-Language", "pt-BR")
	c.AbortWithStatusJSON(status, Problem{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Title:     title,
		Detail:    detail,
		Instance:  c.Request.URL.Path,
	})
}
