package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type captureFatal struct{ msg string }

func (c *captureFatal) Fatalf(format string, args ...any) { c.msg = fmt.Sprintf(format, args...) }

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolationsSkipsTests(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package tmp\nimport (\n\"fmt\"\n\"github.com/google/uuid\"\n)\nvar _ = fmt.Sprint\nvar _ = uuid.New\n")
	writeGo(t, dir, "a_test.go", "package tmp\nimport \"bloodbank/internal/core\"\nvar _ core.Logger\n")
	writeGo(t, dir, "notes.txt", "import \"bloodbank/internal/core\"")

	viols, err := directImportViolations(dir, NonStdlibImport)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.HasPrefix(viols[0], "github.com/google/uuid") {
		t.Fatalf("unexpected violations %v", viols)
	}

	if viols, _ := directImportViolations(dir, InternalImport); len(viols) != 0 {
		t.Fatalf("test files must be ignored, got %v", viols)
	}
	AssertNoDirectImports(t, dir, ImportUnder("bloodbank/internal"), "no internal imports")
}

func TestDirectImportViolationsErrors(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), InternalImport); err == nil {
		t.Fatalf("expected error for missing dir")
	}
	dir := t.TempDir()
	writeGo(t, dir, "broken.go", "package tmp\nimport (")
	if _, err := directImportViolations(dir, InternalImport); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred func(string) bool
		path string
		want bool
	}{
		{"stdlib", NonStdlibImport, "net/http", false},
		{"third party", NonStdlibImport, "go.uber.org/zap", true},
		{"module", NonStdlibImport, "bloodbank/pkg/domain", true},
		{"internal", InternalImport, "bloodbank/internal/core", true},
		{"pkg", InternalImport, "bloodbank/pkg/client", false},
		{"under exact", ImportUnder("bloodbank/internal/infra"), "bloodbank/internal/infra", true},
		{"under child", ImportUnder("bloodbank/internal/infra"), "bloodbank/internal/infra/blob/s3", true},
		{"under sibling", ImportUnder("bloodbank/internal/infra"), "bloodbank/internal/infrastructure", false},
	}
	for _, tc := range cases {
		if got := tc.pred(tc.path); got != tc.want {
			t.Fatalf("%s: pred(%q) = %v, want %v", tc.name, tc.path, got, tc.want)
		}
	}
}

func TestFailIfViolations(t *testing.T) {
	var c captureFatal
	failIfViolations(&c, "reason", nil)
	if c.msg != "" {
		t.Fatalf("no violations must not fail")
	}
	failIfViolations(&c, "keep it clean", []string{"x (in a.go)"})
	if !strings.Contains(c.msg, "keep it clean") || !strings.Contains(c.msg, "x (in a.go)") {
		t.Fatalf("unexpected message %q", c.msg)
	}
}
