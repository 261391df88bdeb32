package vector

import (
	"errors"
	"fmt"
)

// ErrDuplicateID is returned when a corpus is built from entries that share an ID.
var ErrDuplicateID = errors.New("duplicate corpus id")

// DimensionMismatchError reports a vector whose length differs from the corpus dimension.
// ID is empty when the offending vector is a query rather than a corpus entry.
type DimensionMismatchError struct {
	ID       string
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("vector dimension mismatch for %q: got %d, expected %d", e.ID, e.Got, e.Expected)
	}
	return fmt.Sprintf("vector dimension mismatch: got %d, expected %d", e.Got, e.Expected)
}

// IsDimensionMismatch reports whether err is or wraps a *DimensionMismatchError.
func IsDimensionMismatch(err error) bool {
	var dm *DimensionMismatchError
	return errors.As(err, &dm)
}
