package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubdomainFromHost(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"acme.bellaprep.com", "acme"},
		{"acme.bellaprep.com:8443", "acme"},
		{"bellaprep.com", ""},
		{"localhost:5300", ""},
		{"deep.acme.bellaprep.com", "deep"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, subdomainFromHost(tt.host), tt.host)
	}
}
