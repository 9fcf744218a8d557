package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/loanrecon/internal/model"
)

// Session errors.
var (
	ErrBlocked      = errors.New("reconciliation blocked")
	ErrUnknownField = errors.New("field has no variance in this session")
	ErrInvalidValue = errors.New("invalid value for field")
)

// BlockingField names a variance that prevents finalizing a session.
type BlockingField struct {
	Field    string         `json:"field"`
	Label    string         `json:"label"`
	Severity model.Severity `json:"severity"`
}

// BlockedError is returned by Finalize while blocking variances remain unresolved.
type BlockedError struct {
	Fields []BlockingField
}

func (e *BlockedError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, fmt.Sprintf("%s (%s, %s)", f.Label, f.Field, f.Severity))
	}
	return "unresolved blocking variances: " + strings.Join(names, ", ")
}

// Is implements errors.Is support.
func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}
