package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = errs.Add("name", "name is required").Add("email", "email is invalid")
	assert.Equal(t, "name: name is required; email: email is invalid", errs.Error())
}

func TestValidationErrors_ToMap_KeepsFirstMessagePerField(t *testing.T) {
	errs := ValidationErrors{}.
		Add("amount", "amount is required").
		Add("amount", "amount must be positive")

	m := errs.ToMap()
	assert.Len(t, m, 1)
	assert.Equal(t, "amount is required", m["amount"])
}
