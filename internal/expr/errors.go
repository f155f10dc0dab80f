package expr

import (
	"errors"
	"fmt"
)

// ErrInvalidExpression matches every *InvalidExpressionError via errors.Is.
var ErrInvalidExpression = errors.New("expr: invalid expression")

// InvalidExpressionError rejects text that is not a pure arithmetic
// expression over declared names. Offset is a byte offset into Source.
type InvalidExpressionError struct {
	Source string
	Offset int
	Reason string
}

func (e *InvalidExpressionError) Error() string {
	return fmt.Sprintf("expr: %s at offset %d in %q", e.Reason, e.Offset, e.Source)
}

func (e *InvalidExpressionError) Is(target error) bool {
	return target == ErrInvalidExpression
}
