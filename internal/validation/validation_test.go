package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/validation"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Nickname string `json:"nickname,omitempty" validate:"max=5"`
	Password string `json:"password" validate:"min=8"`
	Country  string `validate:"omitempty,iso3166_1_alpha2"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		in     signup
		field  string
		reason string
	}{
		{name: "required", in: signup{Password: "longenough"}, field: "email", reason: "required"},
		{name: "email", in: signup{Email: "nope", Password: "longenough"}, field: "email", reason: "must be a valid email address"},
		{name: "max", in: signup{Email: "a@b.co", Nickname: "toolong", Password: "longenough"}, field: "nickname", reason: "must be at most 5 characters"},
		{name: "min", in: signup{Email: "a@b.co", Password: "short"}, field: "password", reason: "must be at least 8 characters"},
		{name: "untagged name", in: signup{Email: "a@b.co", Password: "longenough", Country: "ZZ"}, field: "Country"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Struct(tt.in)

			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			if tt.reason != "" {
				assert.Equal(t, tt.reason, verr.Reason)
			}
		})
	}

	assert.NoError(t, validation.Struct(signup{Email: "a@b.co", Password: "longenough", Country: "FR"}))
}
