package signedlink

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLinkRouter(t *testing.T) (*gin.Engine, *Signer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signer, err := NewSigner("test-link-secret", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/public/tasks/:taskID/slots", Middleware(signer), func(c *gin.Context) {
		id, _ := GetTaskID(c)
		c.JSON(http.StatusOK, gin.H{"task_id": id})
	})
	return r, signer
}

func TestMiddlewareAcceptsValidLink(t *testing.T) {
	r, signer := setupLinkRouter(t)

	link := signer.Generate(7)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, link.Path, nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"task_id":7`)
}

func TestMiddlewareRejectsMissingParams(t *testing.T) {
	r, _ := setupLinkRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/public/tasks/7/slots", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareRejectsExpired(t *testing.T) {
	r, signer := setupLinkRouter(t)

	link := signer.GenerateWithExpiry(7, time.Now().Add(-time.Minute))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, link.Path, nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestMiddlewareRejectsTokenForOtherTask(t *testing.T) {
	r, signer := setupLinkRouter(t)

	link := signer.Generate(8)

	w := httptest.NewRecorder()
	url := fmt.Sprintf("/public/tasks/7/slots?token=%s&exp=%d", link.Token, link.ExpiresAt)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid link")
}
