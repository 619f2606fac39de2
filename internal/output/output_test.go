package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sariola/notion2prompt/internal/ui"
)

func TestDeliver_StdoutAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	plan := NewPlan().WithStdout().WithFile(path)

	var buf bytes.Buffer
	report := Deliver(plan, "prompt text", &buf, ui.New(ui.ColorNever))

	if !report.Success() {
		t.Fatalf("failures: %v", report.Errors())
	}
	if buf.String() != "prompt text" {
		t.Errorf("stdout = %q", buf.String())
	}
	content, err := os.ReadFile(path)
	if err != nil || string(content) != "prompt text" {
		t.Errorf("file = %q, %v", content, err)
	}
	if len(report.Completed) != 2 {
		t.Errorf("completed = %d", len(report.Completed))
	}
}

func TestDeliver_FileFailure(t *testing.T) {
	plan := NewPlan().WithFile(filepath.Join(t.TempDir(), "missing-dir", "out.txt"))

	var buf bytes.Buffer
	report := Deliver(plan, "x", &buf, ui.New(ui.ColorNever))

	if report.Success() {
		t.Fatal("expected failure for unwritable path")
	}
	if len(report.Errors()) != 1 || !strings.Contains(report.Errors()[0], "file") {
		t.Errorf("errors = %v", report.Errors())
	}
}

func TestWriteJSON_Plain(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"title": "Page", "blocks": []any{map[string]any{"type": "paragraph"}}}

	if err := WriteJSON(&buf, data, "", ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"title": "Page"`) {
		t.Errorf("output = %s", buf.String())
	}
}

func TestWriteJSON_JQ(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"blocks": []any{
		map[string]any{"type": "paragraph"},
		map[string]any{"type": "heading_1"},
	}}

	if err := WriteJSON(&buf, data, ".blocks[].type", ""); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "paragraph") || !strings.Contains(out, "heading_1") {
		t.Errorf("output = %s", out)
	}
}

func TestWriteJSON_JQInvalid(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]any{}, ".[unclosed", ""); err == nil {
		t.Error("expected error for invalid jq")
	}
}

func TestWriteJSON_JSONPath(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"blocks": []any{map[string]any{"id": "abc"}}}

	if err := WriteJSON(&buf, data, "", "$.blocks[0].id"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "abc") {
		t.Errorf("output = %s", buf.String())
	}
}
