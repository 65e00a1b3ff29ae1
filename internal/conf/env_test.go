package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvValidators(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		fn      func(string) error
		value   string
		wantErr bool
	}{
		{"bool true", validateEnvBool, "true", false},
		{"bool padded", validateEnvBool, " 1 ", false},
		{"bool yes", validateEnvBool, "yes", true},
		{"float", validateEnvFloat, "0.5", false},
		{"float garbage", validateEnvFloat, "high", true},
		{"fraction", validateEnvFraction, "0.95", false},
		{"fraction too big", validateEnvFraction, "1.01", true},
		{"fraction negative", validateEnvFraction, "-0.1", true},
		{"workers", validateEnvNonNegativeInt, "4", false},
		{"workers negative", validateEnvNonNegativeInt, "-1", true},
		{"dir exists", validateEnvDir, dir, false},
		{"dir missing", validateEnvDir, dir + "/missing", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.fn(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
