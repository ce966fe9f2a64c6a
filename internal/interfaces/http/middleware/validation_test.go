package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendorbill/backend/internal/interfaces/http/dto"
)

type validationInput struct {
	CustomerID string `json:"customer_id" binding:"required,uuid"`
	Kind       string `json:"kind" binding:"required,oneof=bill challan"`
	Items      []int  `json:"items" binding:"omitempty,max=2"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req validationInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFormatValidationErrors_UsesJSONFieldNames(t *testing.T) {
	w := postJSON(newValidationRouter(), `{"customer_id":"nope","kind":"invoice","items":[1,2,3]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	byField := map[string]dto.ValidationDetail{}
	for _, d := range resp.Error.Details {
		byField[d.Field] = d
	}
	require.Len(t, byField, 3)
	assert.Equal(t, "Invalid UUID format", byField["customer_id"].Message)
	assert.Equal(t, "Must be one of: bill challan", byField["kind"].Message)
	assert.Equal(t, "max", byField["items"].Tag)
}

func TestFormatValidationErrors_MissingRequired(t *testing.T) {
	w := postJSON(newValidationRouter(), `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Error.Details, 2)
	for _, d := range resp.Error.Details {
		assert.Equal(t, "This field is required", d.Message)
	}
}

func TestFormatValidationErrors_MalformedJSON(t *testing.T) {
	w := postJSON(newValidationRouter(), `{"customer_id":`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Invalid request body")
	assert.Empty(t, resp.Error.Details)
}

func TestFormatValidationErrors_Valid(t *testing.T) {
	w := postJSON(newValidationRouter(), `{"customer_id":"7f8b2c1e-6a53-4a8e-9b0e-2c2f3d4e5f60","kind":"bill"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}
