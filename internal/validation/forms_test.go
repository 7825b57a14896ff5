package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_LoginForm(t *testing.T) {
	v := New()

	tests := []struct {
		name string
		form LoginForm
		want FieldErrors
	}{
		{
			name: "valid",
			form: LoginForm{Email: "admin@yski.org", Password: "secret"},
		},
		{
			name: "invalid email",
			form: LoginForm{Email: "admin", Password: "secret"},
			want: FieldErrors{"email": "Email tidak valid"},
		},
		{
			name: "empty password",
			form: LoginForm{Email: "admin@yski.org"},
			want: FieldErrors{"password": "Password wajib diisi"},
		},
		{
			name: "both empty",
			form: LoginForm{},
			want: FieldErrors{"email": "Email tidak valid", "password": "Password wajib diisi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(tt.form)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var fe FieldErrors
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.want, fe)
		})
	}
}

func TestValidator_RegisterForm(t *testing.T) {
	v := New()

	require.NoError(t, v.Check(RegisterForm{FullName: "Budi", Email: "budi@mail.com", Password: "123456"}))

	err := v.Check(RegisterForm{FullName: "Budi", Email: "budi@mail.com", Password: "123"})
	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Password minimal 6 karakter", fe["password"])

	err = v.Check(RegisterForm{Email: "budi@mail.com", Phone: "012345678901234567890123", Password: "123456"})
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Nama lengkap wajib diisi", fe["full_name"])
	assert.Equal(t, "Nomor telepon maksimal 20 karakter", fe["phone"])
	assert.Contains(t, fe.Error(), "validation failed")
}
