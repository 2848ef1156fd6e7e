package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Café", "cafe"},
		{"  Musée   d'Orsay ", "musee d'orsay"},
		{"SÃO PAULO", "sao paulo"},
		{"Crème Brûlée", "creme brulee"},
		{"", ""},
		{"Zürich", "zurich"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}
