package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	clierrors "github.com/sariola/notion2prompt/internal/errors"
)

func testApp() (*App, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	app := NewApp()
	app.Stdout = &stdout
	app.Stderr = &stderr
	return app, &stdout, &stderr
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"user error", clierrors.NewUserError("bad input", ""), 2},
		{"validation", &clierrors.ValidationError{Field: "x", Message: "y"}, 2},
		{"auth", clierrors.AuthRequiredError(nil), 4},
		{"other", context.Canceled, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRootCmd_Help(t *testing.T) {
	app, stdout, _ := testApp()
	if err := app.Execute(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("--help failed: %v", err)
	}
	help := stdout.String()
	for _, want := range []string{"--depth", "--limit", "--always-fetch-databases", "--template", "auth", "cache", "mcp"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func TestRootCmd_Version(t *testing.T) {
	app, stdout, _ := testApp()
	app.Version = "1.2.3"
	if err := app.Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "n2p 1.2.3") {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestRootCmd_RequiresTarget(t *testing.T) {
	app, _, _ := testApp()
	if err := app.Execute(context.Background(), []string{}); err == nil {
		t.Error("expected an error without a target argument")
	}
}
