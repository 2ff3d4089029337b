package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalExpression(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"1 + 2", 3},
		{"10 - 4 - 3", 3},
		{"2 * 3 + 4", 10},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"100 / 4 / 5", 5},
		{"-5 + 3", -2},
		{"-(2 + 3)", -5},
		{"3.5 * 2", 7},
		{"  42  ", 42},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := evalExpression(tc.expr)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestEvalExpressionErrors(t *testing.T) {
	cases := []string{
		"",
		"1 +",
		"(1 + 2",
		"1 / 0",
		"2 ** 3",
		"rm -rf /",
		"1 + two",
	}

	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			_, err := evalExpression(expr)
			assert.Error(t, err)
		})
	}
}
