package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/compliance-review-api/pkg/errors"
)

func TestOKCarriesWarnings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OK(c, gin.H{"id": "doc-1"}, []string{"notification not queued"})

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data map[string]string   `json:"data"`
		Meta map[string][]string `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "doc-1", body.Data["id"])
	assert.Equal(t, []string{"notification not queued"}, body.Meta["warnings"])
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestOKWithoutWarningsOmitsMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OK(c, gin.H{"id": "doc-1"}, nil)
	assert.NotContains(t, w.Body.String(), "meta")
}

func TestErrorMapsDomainCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{appErrors.Clone(appErrors.ErrInvalidTransition, "document is DRAFT"), http.StatusConflict, "INVALID_TRANSITION"},
		{appErrors.ErrConcurrencyConflict, http.StatusServiceUnavailable, "CONCURRENCY_CONFLICT"},
		{fmt.Errorf("plain"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Error(c, tc.err)

		assert.Equal(t, tc.status, w.Code)
		assert.Contains(t, w.Body.String(), tc.code)
	}
}

func TestErrorSetsRetryAfterOnConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.ErrConcurrencyConflict)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}
