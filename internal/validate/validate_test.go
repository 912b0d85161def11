package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"full_name" validate:"required,min=2"`
	Theme  string `json:"theme" validate:"omitempty,oneof=light dark system"`
	Rating int    `json:"rating" validate:"gte=0"`
}

func TestStructPassesValidInput(t *testing.T) {
	v := New()
	err := v.Struct(sampleRequest{Email: "asha@railops.in", Name: "Asha", Theme: "dark"})
	assert.NoError(t, err)
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Struct(sampleRequest{Email: "not-an-email", Name: "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.Contains(t, err.Error(), "full_name must be at least 2 characters")
}

func TestStructFormatsOneOf(t *testing.T) {
	v := New()
	err := v.Struct(sampleRequest{Email: "asha@railops.in", Name: "Asha", Theme: "sepia"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theme must be one of: light, dark, system")
}
