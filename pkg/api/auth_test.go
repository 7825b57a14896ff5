package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse_Message(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "string detail", body: `{"detail":"Incorrect email or password"}`, want: "Incorrect email or password"},
		{
			name: "validation list",
			body: `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"},{"msg":"bad"}]}`,
			want: "email: value is not a valid email address; bad",
		},
		{name: "no detail", body: `{}`, want: ""},
		{name: "object detail", body: `{"detail":{"code":1}}`, want: `{"code":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &e))
			assert.Equal(t, tt.want, e.Message())
		})
	}
}
