package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSpecialty(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		want       string
		ok         bool
	}{
		{"exact", "Cardiology", "Cardiology", true},
		{"case and punctuation", "  **neurology.** ", "Neurology", true},
		{"slash name", "ob/gyn", "OB/GYN", true},
		{"embedded", "The most appropriate specialty is Pulmonology.", "Pulmonology", true},
		{"earliest mention wins", "Gastroenterology, possibly Cardiology", "Gastroenterology", true},
		{"unknown", "Emergency Medicine", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeSpecialty(tt.completion)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
