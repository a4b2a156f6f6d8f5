package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips continuation markers",
			input:    "ВЫБРАТЬ\n\t|Код\n    |ИЗ Справочник.Номенклатура",
			expected: "ВЫБРАТЬ\nКод\nИЗ Справочник.Номенклатура",
		},
		{
			name:     "strips comments",
			input:    "ВЫБРАТЬ Код // код товара\n// whole line\nИЗ Т",
			expected: "ВЫБРАТЬ Код \n\nИЗ Т",
		},
		{
			name:     "only one marker removed",
			input:    "||Код",
			expected: "|Код",
		},
		{
			name:     "plain text unchanged",
			input:    "ВЫБРАТЬ Код ИЗ Т",
			expected: "ВЫБРАТЬ Код ИЗ Т",
		},
		{
			// Comment removal ignores string literals.
			name:     "comment marker inside string",
			input:    `ГДЕ Адрес = "http://x"`,
			expected: `ГДЕ Адрес = "http:`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Preprocess(tt.input))
		})
	}
}

func TestPreprocessNeverLeavesComments(t *testing.T) {
	inputs := []string{
		"a // b",
		"|// c\n|d",
		"x = \"//\" // y",
	}
	for _, in := range inputs {
		assert.NotContains(t, Preprocess(in), "//")
	}
}
