package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWithoutHooks(t *testing.T) {
	ClearErrorHooks()

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
}

func TestBuilderContext(t *testing.T) {
	ClearErrorHooks()

	ee := Newf("bad row %d", 3).
		Component("inference").
		Category(CategoryFileParsing).
		FileContext("/data/scrape_inference.CSV").
		Context("row", 3).
		Build()

	ctx := ee.GetContext()
	assert.Equal(t, "inference", ee.GetComponent())
	assert.Equal(t, "csv", ctx["file_extension"])
	assert.Equal(t, 3, ctx["row"])

	// The returned map is a copy
	ctx["row"] = 99
	assert.Equal(t, 3, ee.GetContext()["row"])
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		component string
		want      ErrorCategory
	}{
		{"parse message", fmt.Errorf("failed to parse timestamp"), "", CategoryFileParsing},
		{"missing column", fmt.Errorf("missing required column logit"), "", CategoryFileParsing},
		{"missing file", fmt.Errorf("open x: no such file or directory"), "", CategoryFileIO},
		{"invalid value", fmt.Errorf("invalid duty cycle"), "", CategoryValidation},
		{"statistics component", fmt.Errorf("singular matrix"), "glm", CategoryStatistics},
		{"fallback", fmt.Errorf("boom"), "", CategoryGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectCategory(tt.err, tt.component))
		})
	}
}

func TestHooksReceiveErrors(t *testing.T) {
	ClearErrorHooks()
	t.Cleanup(ClearErrorHooks)

	var seen []ErrorCategory
	AddErrorHook(func(ee *EnhancedError) {
		seen = append(seen, ee.Category)
	})

	_ = New(fmt.Errorf("watson failed")).Category(CategoryStatistics).Build()
	_ = ValidationError("bad config")

	require.Len(t, seen, 2)
	assert.Equal(t, CategoryStatistics, seen[0])
	assert.Equal(t, CategoryValidation, seen[1])
}

func TestIsCategory(t *testing.T) {
	ClearErrorHooks()

	base := New(fmt.Errorf("no inference csv")).Category(CategoryNotFound).Build()
	wrapped := fmt.Errorf("loading kenya: %w", base)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsCategory(wrapped, CategoryStatistics))
	assert.True(t, Is(wrapped, &EnhancedError{Category: CategoryNotFound}))
}
