package seeder

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySeedSet rejects an empty candidate list. Declaring a seed batch with
// nothing in it is a configuration mistake, not a no-op.
var ErrEmptySeedSet = errors.New("seed set is empty")

// UnknownConstraintColumnError reports constraint columns that do not exist on
// the target table, along with every column that does, so the operator can see
// the typo without opening a database console.
type UnknownConstraintColumnError struct {
	Table   string
	Invalid []string
	Valid   []string
}

func (e *UnknownConstraintColumnError) Error() string {
	return fmt.Sprintf("unknown constraint column(s) %s on table %s (valid columns: %s)",
		strings.Join(e.Invalid, ", "), e.Table, strings.Join(e.Valid, ", "))
}

// RecordNotSavedError is fatal for the whole batch; the enclosing transaction
// rolls back and no candidate survives.
type RecordNotSavedError struct {
	Table    string
	Messages []string
}

func (e *RecordNotSavedError) Error() string {
	return fmt.Sprintf("failed to save seed record on table %s: %s",
		e.Table, strings.Join(e.Messages, "; "))
}
