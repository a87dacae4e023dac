package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNoUsableRows     = errors.New("no_usable_rows")
	ErrUnsupportedFile  = errors.New("unsupported_file")
	ErrUploadInProgress = errors.New("upload_in_progress")
	ErrInvalidUpload    = errors.New("invalid_upload")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)

// NoUsableRowsError reports a file that produced no records after cleaning,
// with the per-reason drop counts that explain why.
type NoUsableRowsError struct {
	Dropped map[string]int
}

func (e *NoUsableRowsError) Error() string {
	if len(e.Dropped) == 0 {
		return "file contains no usable rows"
	}
	reasons := make([]string, 0, len(e.Dropped))
	for reason, n := range e.Dropped {
		reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
	}
	sort.Strings(reasons)
	return "file contains no usable rows (dropped: " + strings.Join(reasons, ", ") + ")"
}

func (e *NoUsableRowsError) Is(target error) bool {
	return target == ErrNoUsableRows
}
