package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Name    string  `validate:"required,min=2"`
	Channel string  `validate:"omitempty,oneof=email sms push"`
	Weight  float64 `validate:"omitempty,gte=0,lte=1"`
}

func TestValidateStructValid(t *testing.T) {
	assert.NoError(t, ValidateStruct(&samplePayload{Name: "ok", Channel: "email", Weight: 0.5}))
}

func TestValidateStructCollectsFields(t *testing.T) {
	err := ValidateStruct(&samplePayload{Channel: "carrier-pigeon", Weight: 2})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "Name")
	assert.Contains(t, verr.Fields, "Channel")
	assert.Contains(t, verr.Fields, "Weight")
	assert.Equal(t, "this field is required", verr.Fields["Name"])
	assert.Contains(t, verr.Fields["Channel"], "must be one of")
}

func TestValidationErrorMessage(t *testing.T) {
	verr := &ValidationError{Fields: map[string]string{"Name": "this field is required"}}
	assert.Contains(t, verr.Error(), "Name: this field is required")
}
