package domain

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		total        int
		expected     []int
		rejectedMsgs []string
	}{
		{
			name:         "duplicate collapsed and out of range dropped",
			raw:          "1, 2, 2, 5",
			total:        3,
			expected:     []int{1, 2},
			rejectedMsgs: []string{"Ignoring out-of-range index: 5"},
		},
		{
			name:     "empty input",
			raw:      "",
			total:    5,
			expected: []int{},
		},
		{
			name:         "invalid token and trailing empty token",
			raw:          "a, 3, ",
			total:        5,
			expected:     []int{3},
			rejectedMsgs: []string{"Invalid selection: a"},
		},
		{
			name:     "unordered input is sorted",
			raw:      "3,1",
			total:    3,
			expected: []int{1, 3},
		},
		{
			name:         "zero and negative are out of range",
			raw:          "0,-2,2",
			total:        2,
			expected:     []int{2},
			rejectedMsgs: []string{"Ignoring out-of-range index: 0", "Ignoring out-of-range index: -2"},
		},
		{
			name:         "float is invalid",
			raw:          "1.5, 1",
			total:        2,
			expected:     []int{1},
			rejectedMsgs: []string{"Invalid selection: 1.5"},
		},
		{
			name:     "only separators",
			raw:      " , ,, ",
			total:    4,
			expected: []int{},
		},
		{
			name:     "integer overflow is out of range",
			raw:      "99999999999999999999, -99999999999999999999, +99999999999999999999, 2",
			total:    3,
			expected: []int{2},
			rejectedMsgs: []string{
				"Ignoring out-of-range index: 99999999999999999999",
				"Ignoring out-of-range index: -99999999999999999999",
				"Ignoring out-of-range index: 99999999999999999999",
			},
		},
		{
			name:         "nothing selectable when total is zero",
			raw:          "1",
			total:        0,
			expected:     []int{},
			rejectedMsgs: []string{"Ignoring out-of-range index: 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indices, rejected := ParseSelection(tt.raw, tt.total)
			assert.Equal(t, tt.expected, indices)

			var msgs []string
			for _, err := range rejected {
				msgs = append(msgs, err.Error())
			}
			assert.Equal(t, tt.rejectedMsgs, msgs)
		})
	}
}

func TestParseSelection_ReasonIsExposed(t *testing.T) {
	_, rejected := ParseSelection("x,9", 3)
	require.Len(t, rejected, 2)

	var selErr *SelectionError
	require.True(t, errors.As(rejected[0], &selErr))
	assert.Equal(t, ReasonInvalid, selErr.Reason)
	assert.Equal(t, "x", selErr.Token)

	require.True(t, errors.As(rejected[1], &selErr))
	assert.Equal(t, ReasonOutOfRange, selErr.Reason)
	assert.Equal(t, 9, selErr.Index)
	assert.False(t, selErr.Overflow)
}

func TestParseSelection_OverflowKeepsToken(t *testing.T) {
	_, rejected := ParseSelection("123456789012345678901234567890", 3)
	require.Len(t, rejected, 1)

	var selErr *SelectionError
	require.True(t, errors.As(rejected[0], &selErr))
	assert.Equal(t, ReasonOutOfRange, selErr.Reason)
	assert.True(t, selErr.Overflow)
	assert.Equal(t, "123456789012345678901234567890", selErr.Token)
}

func TestParseSelection_AlwaysAscendingUniqueInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tokens := []string{"", " ", "a", "-1", "0", "x1", "3.0"}

	for i := 0; i < 200; i++ {
		total := rng.Intn(8)
		var parts []string
		for j := 0; j < rng.Intn(10); j++ {
			if rng.Intn(3) == 0 {
				parts = append(parts, tokens[rng.Intn(len(tokens))])
			} else {
				parts = append(parts, " "+strconv.Itoa(rng.Intn(12)-1)+" ")
			}
		}
		raw := strings.Join(parts, ",")

		indices, _ := ParseSelection(raw, total)
		for k, idx := range indices {
			assert.GreaterOrEqual(t, idx, 1, raw)
			assert.LessOrEqual(t, idx, total, raw)
			if k > 0 {
				assert.Less(t, indices[k-1], idx, raw)
			}
		}
	}
}
