package middlewares

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type connectInput struct {
	Name     string `json:"name" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=meta google"`
}

func TestValidator_ValidInputPasses(t *testing.T) {
	v := &Validator{validator: validator.New()}
	assert.NoError(t, v.Validate(&connectInput{Name: "ACME", Platform: "meta"}))
}

func TestValidator_FieldErrorsAreReadable(t *testing.T) {
	v := &Validator{validator: validator.New()}

	err := v.Validate(&connectInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "platform is required")

	err = v.Validate(&connectInput{Name: "ACME", Platform: "tiktok"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform must be one of: meta google")
}

func TestConfigureValidator(t *testing.T) {
	e := echo.New()
	ConfigureValidator(e)
	require.NotNil(t, e.Validator)
	assert.NoError(t, e.Validator.Validate(&connectInput{Name: "ACME", Platform: "google"}))
}
