package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		ok    bool
	}{
		{"alice@example.com", true},
		{"a.b+tag@sub.example.org", true},
		{"", false},
		{"alice", false},
		{"alice@", false},
		{"@example.com", false},
		{"alice example@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidEmail)
			}
		})
	}
}

func TestToDetails(t *testing.T) {
	v := validator.New()
	configure(v)

	type req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"pwd"`
	}
	err := v.Struct(req{Email: "nope", Password: "short"})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "min length 8", details["password"])

	var syntax *json.SyntaxError
	err = json.Unmarshal([]byte(`{`), &struct{}{})
	require.ErrorAs(t, err, &syntax)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	assert.Equal(t, map[string]string{"email": "must be a valid email"}, ToDetails(ValidateEmail("x")))
	assert.Nil(t, ToDetails(nil))
}
