package orgkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGinRequirePolicy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, _ := newTestMemoryEngine(t)

	router := gin.New()
	router.POST("/leases/:id/sign",
		GinRequirePolicy(engine, "leases.sign", func(c *gin.Context) *Principal {
			if c.GetHeader("X-User") == "" {
				return nil
			}
			return NewPrincipal(c.GetHeader("X-User"), c.GetHeader("X-Org"))
		}),
		func(c *gin.Context) {
			d, ok := DecisionFromContext(c.Request.Context())
			assert.True(t, ok)
			c.JSON(http.StatusOK, gin.H{"reason": d.Reason})
		},
	)

	tests := []struct {
		name   string
		user   string
		org    string
		want   int
		reason string
	}{
		{"allowed", "manager", "org-1", http.StatusOK, "role_match"},
		{"role mismatch", "tenant", "org-1", http.StatusForbidden, "role_mismatch"},
		{"no organization", "manager", "", http.StatusForbidden, "no_active_organization"},
		{"anonymous", "", "", http.StatusUnauthorized, "unauthenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/leases/1/sign", nil)
			req.Header.Set("X-User", tt.user)
			req.Header.Set("X-Org", tt.org)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"reason":"`+tt.reason+`"`)
		})
	}
}

func TestGinRequirePolicyDefaultExtractor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine, _ := newTestMemoryEngine(t)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), NewPrincipal("tenant", "org-1")))
		c.Next()
	})
	router.GET("/documents", GinRequirePolicy(engine, "documents.read", nil), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Panics(t, func() { GinRequirePolicy(engine, "documents.raed", nil) })
}
