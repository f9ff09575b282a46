package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SelectionReason classifies a rejected selection token
type SelectionReason string

const (
	ReasonInvalid    SelectionReason = "invalid"
	ReasonOutOfRange SelectionReason = "out_of_range"
)

// SelectionError describes one token of a selection that was dropped.
// Overflow marks an integer too large for Index, which then holds the
// clamped value.
type SelectionError struct {
	Token    string
	Index    int
	Overflow bool
	Reason   SelectionReason
}

func (e *SelectionError) Error() string {
	if e.Reason == ReasonOutOfRange {
		if e.Overflow {
			return fmt.Sprintf("Ignoring out-of-range index: %s", strings.TrimPrefix(e.Token, "+"))
		}
		return fmt.Sprintf("Ignoring out-of-range index: %d", e.Index)
	}
	return fmt.Sprintf("Invalid selection: %s", e.Token)
}

// ParseSelection parses a comma separated list of 1-based indices.
// Empty tokens are skipped silently. Tokens that are not integers or fall
// outside [1, total] are dropped and reported in the returned slice.
// The indices are unique and sorted ascending.
func ParseSelection(raw string, total int) ([]int, []error) {
	seen := make(map[int]struct{})
	var rejected []error

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx, err := strconv.Atoi(part)
		if errors.Is(err, strconv.ErrRange) {
			rejected = append(rejected, &SelectionError{Token: part, Index: idx, Overflow: true, Reason: ReasonOutOfRange})
			continue
		}
		if err != nil {
			rejected = append(rejected, &SelectionError{Token: part, Reason: ReasonInvalid})
			continue
		}
		if idx < 1 || idx > total {
			rejected = append(rejected, &SelectionError{Token: part, Index: idx, Reason: ReasonOutOfRange})
			continue
		}
		seen[idx] = struct{}{}
	}

	indices := make([]int, 0, len(seen))
	for idx := range seen {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices, rejected
}
