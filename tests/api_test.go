package tests

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"sohbet/internal/adapter/api"
	"sohbet/internal/adapter/api/handler"
)

func TestHealthCheck(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	healthHandler := handler.NewHealthHandler()

	if assert.NoError(t, healthHandler.Check(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ok")
	}
}

func TestValidatorRejectsBadInput(t *testing.T) {
	v := api.NewValidator()

	type loginRequest struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required"`
	}

	assert.Error(t, v.Validate(&loginRequest{Email: "not-an-email", Password: "x"}))
	assert.NoError(t, v.Validate(&loginRequest{Email: "user@example.com", Password: "x"}))
}
