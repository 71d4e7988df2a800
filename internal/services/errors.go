package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrScan                 = errors.New("scan error")
	ErrAmbiguousAssociation = errors.New("ambiguous association")
	ErrTransferConflict     = errors.New("transfer conflict")
	ErrTransferIO           = errors.New("transfer io failure")
	ErrConfiguration        = errors.New("configuration error")
	ErrValidation           = errors.New("validation error")
	ErrCanceled             = errors.New("canceled")
)

// Report labels for the markers above. They appear in session reports and
// JSON output, so treat them as stable.
const (
	KindScan                 = "scan_error"
	KindAmbiguousAssociation = "ambiguous_association"
	KindOutsideTree          = "outside_tree"
	KindTransferConflict     = "transfer_conflict"
	KindTransferIO           = "transfer_io_failure"
	KindConfiguration        = "configuration_error"
	KindValidation           = "validation_error"
	KindCanceled             = "canceled"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransferIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to its report label. Unmarked errors are reported as
// transfer IO failures since every other stage wraps its errors explicitly.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrScan):
		return KindScan
	case errors.Is(err, ErrAmbiguousAssociation):
		return KindAmbiguousAssociation
	case errors.Is(err, ErrTransferConflict):
		return KindTransferConflict
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrCanceled):
		return KindCanceled
	default:
		return KindTransferIO
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "artifact failure"
	}
	return strings.Join(parts, ": ")
}
