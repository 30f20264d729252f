package downloader

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"tagged config", wrapCategory(CategoryConfig, errors.New("boom")), CategoryConfig},
		{"tagged invalid url", wrapCategory(CategoryInvalidURL, errors.New("boom")), CategoryInvalidURL},
		{"untagged defaults to engine", errors.New("boom"), CategoryEngine},
		{"wrapped keeps inner tag", fmt.Errorf("outer: %w", wrapCategory(CategoryIncomplete, errors.New("boom"))), CategoryIncomplete},
		{"double wrap keeps first tag", wrapCategory(CategoryEngine, wrapCategory(CategoryConfig, errors.New("boom"))), CategoryConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryOf(tt.err); got != tt.want {
				t.Errorf("CategoryOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapCategoryNil(t *testing.T) {
	if err := wrapCategory(CategoryEngine, nil); err != nil {
		t.Errorf("wrapCategory(nil) = %v, want nil", err)
	}
}

func TestCategorizedErrorMessage(t *testing.T) {
	err := wrapCategory(CategoryConfig, errors.New("cookies file not found: /tmp/none"))
	if got := err.Error(); got != "cookies file not found: /tmp/none" {
		t.Errorf("Error() = %q, want the inner message", got)
	}
	if !errors.Is(err, err) {
		t.Error("errors.Is failed on identity")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"invalid url", wrapCategory(CategoryInvalidURL, errors.New("no url")), http.StatusBadRequest},
		{"config", wrapCategory(CategoryConfig, errors.New("boom")), http.StatusInternalServerError},
		{"engine", wrapCategory(CategoryEngine, errors.New("boom")), http.StatusInternalServerError},
		{"incomplete", wrapCategory(CategoryIncomplete, errors.New("boom")), http.StatusInternalServerError},
		{"untagged", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"engine", errors.New("boom"), 1},
		{"invalid url", wrapCategory(CategoryInvalidURL, errors.New("boom")), 2},
		{"config", wrapCategory(CategoryConfig, errors.New("boom")), 3},
		{"incomplete", wrapCategory(CategoryIncomplete, errors.New("boom")), 4},
		{"filesystem", wrapCategory(CategoryFilesystem, errors.New("boom")), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
