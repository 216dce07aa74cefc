package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"strings"
	"path/filepath"
	"testing"

	"formula/internal/util"
)

func TestEvaluateExpression(t *testing.T) {
	var out bytes.Buffer
	if code := evaluateExpression("len([1, 2, 3]) * 2", util.DefaultConfiguration(), &out); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if got := out.String(); got != "6\n" {
		t.Errorf("output = %q, want %q", got, "6\n")
	}

	out.Reset()
	if code := evaluateExpression(`1 + `, util.DefaultConfiguration(), &out); code != 1 {
		t.Errorf("expected exit code 1 for a parse error, got %d", code)
	}
}

func TestEvaluateSheetWithoutQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	src := `
name: constants
fields:
  - name: a
    type: number
    expr: 2 ^ 10
  - name: b
    expr: a - 24
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := evaluateSheet(context.Background(), path, util.DefaultConfiguration(), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := out.String(), "{\"a\":1024,\"b\":1000}\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestEvaluateSheetOverQuery(t *testing.T) {
	dir := t.TempDir()
	sheetPath := filepath.Join(dir, "s.yaml")
	src := `
name: prices
fields:
  - name: gross
    type: number
    expr: net * 1.5
`
	if err := os.WriteFile(sheetPath, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	config := util.DefaultConfiguration()
	config.Database.DSN = filepath.Join(dir, "data.db")
	config.Database.Query = "select net from items order by id"
	seed(t, config.Database.DSN)

	var out bytes.Buffer
	if err := evaluateSheet(context.Background(), sheetPath, config, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := out.String(), "{\"gross\":3}\n{\"gross\":15}\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestConfigureRejectsZeroDepth(t *testing.T) {
	if err := flag.Set("max-depth", "0"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = flag.Set("max-depth", "256") })

	if _, err := configure(); err == nil || !strings.Contains(err.Error(), "max depth") {
		t.Errorf("expected a max depth error, got %v", err)
	}
}

func TestDebugASTFile(t *testing.T) {
	config := util.DefaultConfiguration()
	config.DebugASTFile = filepath.Join(t.TempDir(), "tree.json")

	var out bytes.Buffer
	if code := evaluateExpression("random() < 2", config, &out); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	data, err := os.ReadFile(config.DebugASTFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"3.name": "random"`) {
		t.Errorf("expected the random call in\n%s", data)
	}
}
