package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsesJSONNames(t *testing.T) {
	err := Validate(EvaluationCreateRequest{InternID: "not-an-email"})
	require.Error(t, err)
	details := ValidationDetails(err)
	assert.Equal(t, "email", details["intern_id"])
	assert.Equal(t, "required", details["manager_comment"])
}

func TestHRReviewRequiresAdjustmentPresence(t *testing.T) {
	err := Validate(HRReviewRequest{Comment: "solid"})
	require.Error(t, err)
	assert.Equal(t, "required", ValidationDetails(err)["rating_adjustment"])

	zero := 0
	assert.NoError(t, Validate(HRReviewRequest{Comment: "solid", RatingAdjustment: &zero}))
}

func TestRegisterRoleMustBeKnown(t *testing.T) {
	err := Validate(RegisterRequest{Name: "A", Email: "a@example.com", Password: "secret1", Role: "admin"})
	require.Error(t, err)
	assert.Equal(t, "oneof", ValidationDetails(err)["role"])
}

func TestValidationDetailsIgnoresOtherErrors(t *testing.T) {
	assert.Empty(t, ValidationDetails(assert.AnError))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("intern@example.com"))
	assert.False(t, ValidEmail(""))
	assert.False(t, ValidEmail("intern@"))
	assert.False(t, ValidEmail("not an email"))
}
