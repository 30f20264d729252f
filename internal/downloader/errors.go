package downloader

import (
	"errors"
	"net/http"
)

// Category classifies a download failure so callers can branch on the kind of
// fault without parsing message text.
type Category string

const (
	// CategoryInvalidURL marks requests that never reached the engine.
	CategoryInvalidURL Category = "invalid_url"
	// CategoryConfig marks broken service configuration, such as a cookies
	// path that points at nothing.
	CategoryConfig Category = "config"
	// CategoryEngine marks failures reported by the extraction engine itself.
	CategoryEngine Category = "engine"
	// CategoryIncomplete marks runs that finished without a usable output file.
	CategoryIncomplete Category = "incomplete"
	// CategoryFilesystem marks scratch directory and file copy failures.
	CategoryFilesystem Category = "filesystem"
)

// CategorizedError tags an error with its failure category. The innermost
// category wins when errors are wrapped repeatedly.
type CategorizedError struct {
	Category Category
	Err      error
}

func (e *CategorizedError) Error() string {
	if e.Err == nil {
		return string(e.Category)
	}
	return e.Err.Error()
}

func (e *CategorizedError) Unwrap() error { return e.Err }

func wrapCategory(category Category, err error) error {
	if err == nil {
		return nil
	}
	var categorized *CategorizedError
	if errors.As(err, &categorized) {
		return err
	}
	return &CategorizedError{Category: category, Err: err}
}

// CategoryOf extracts the failure category from err. Errors that carry no
// category are treated as engine failures.
func CategoryOf(err error) Category {
	var categorized *CategorizedError
	if errors.As(err, &categorized) {
		return categorized.Category
	}
	return CategoryEngine
}

// HTTPStatus maps a download error onto the response status. Authorization
// failures never reach the downloader, so only request validation and server
// side faults appear here.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if CategoryOf(err) == CategoryInvalidURL {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ExitCode maps a download error onto the one-shot CLI exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CategoryOf(err) {
	case CategoryInvalidURL:
		return 2
	case CategoryConfig:
		return 3
	case CategoryIncomplete:
		return 4
	case CategoryFilesystem:
		return 5
	default:
		return 1
	}
}
