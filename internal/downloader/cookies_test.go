package downloader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProvisionCookiesUnset(t *testing.T) {
	path, cleanup, err := provisionCookies(t.TempDir(), "")
	if err != nil {
		t.Fatalf("provisionCookies(\"\") error = %v, want nil", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	cleanup()

	path, cleanup, err = provisionCookies(t.TempDir(), "   \t ")
	if err != nil || path != "" {
		t.Errorf("whitespace path: got (%q, %v), want empty and nil", path, err)
	}
	cleanup()
}

func TestProvisionCookiesMissingSource(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.txt")
	_, cleanup, err := provisionCookies(t.TempDir(), missing)
	cleanup()
	if err == nil {
		t.Fatal("provisionCookies() error = nil, want config error")
	}
	if got := CategoryOf(err); got != CategoryConfig {
		t.Errorf("CategoryOf() = %q, want %q", got, CategoryConfig)
	}
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("error %q does not name the missing path", err)
	}
}

func TestProvisionCookiesCopiesAndCleans(t *testing.T) {
	source := filepath.Join(t.TempDir(), "cookies.txt")
	content := []byte("# Netscape HTTP Cookie File\n.example.com\tTRUE\t/\tFALSE\t0\tsid\tabc\n")
	if err := os.WriteFile(source, content, 0o644); err != nil {
		t.Fatal(err)
	}
	scratch := t.TempDir()

	path, cleanup, err := provisionCookies(scratch, source)
	if err != nil {
		t.Fatalf("provisionCookies() error = %v", err)
	}
	if filepath.Dir(path) != scratch {
		t.Errorf("copy placed in %q, want %q", filepath.Dir(path), scratch)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "cookies_") || !strings.HasSuffix(base, ".txt") {
		t.Errorf("copy name = %q, want cookies_*.txt", base)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading copy: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("copy content = %q, want %q", got, content)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("cleanup left %q behind", path)
	}
	// Cleanup tolerates running twice.
	cleanup()

	if _, err := os.Stat(source); err != nil {
		t.Errorf("source file was touched: %v", err)
	}
}

func TestProvisionCookiesUniquePerInvocation(t *testing.T) {
	source := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(source, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	scratch := t.TempDir()

	first, cleanupFirst, err := provisionCookies(scratch, source)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanupFirst()
	second, cleanupSecond, err := provisionCookies(scratch, source)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanupSecond()

	if first == second {
		t.Errorf("two provisions produced the same path %q", first)
	}
	// Removing one copy must not disturb the other.
	cleanupFirst()
	if _, err := os.Stat(second); err != nil {
		t.Errorf("second copy gone after first cleanup: %v", err)
	}
}

func TestProvisionCookiesCreatesScratchRoot(t *testing.T) {
	source := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(source, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	scratch := filepath.Join(t.TempDir(), "nested", "scratch")

	path, cleanup, err := provisionCookies(scratch, source)
	if err != nil {
		t.Fatalf("provisionCookies() error = %v", err)
	}
	defer cleanup()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("copy missing under created root: %v", err)
	}
}
