package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidcare-platform/account-api/internal/utils"
)

func newProtectedRouter(tokens *utils.TokenManager, scope string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("", Auth(tokens))
	if scope != "" {
		group.Use(RequireScope(scope))
	}
	group.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   c.GetString(ContextUserID),
			"user_type": c.GetString(ContextUserType),
		})
	})
	return router
}

func get(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	router := newProtectedRouter(utils.NewTokenManager("secret", time.Hour), "")

	assert.Equal(t, http.StatusUnauthorized, get(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer not-a-token").Code)
}

func TestAuthStoresClaims(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	router := newProtectedRouter(tokens, "")

	token, err := tokens.Generate("user-1", "educator", []string{"educators:read"})
	require.NoError(t, err)

	rec := get(router, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-1")
	assert.Contains(t, rec.Body.String(), "educator")
}

func TestRequireScope(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	router := newProtectedRouter(tokens, "childrengroups:create")

	granted, err := tokens.Generate("user-1", "educator", []string{"childrengroups:create"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(router, "Bearer "+granted).Code)

	denied, err := tokens.Generate("user-2", "child", []string{"children:read"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(router, "Bearer "+denied).Code)
}
