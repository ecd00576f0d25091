package main

import (
	"bytes"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/tally/pkg/catalog"
	"github.com/vanderheijden86/tally/pkg/config"
	"github.com/vanderheijden86/tally/pkg/tree"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"--form", "categories", "--select", "7", "--rtl", "--no-indicator"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if o.form != "categories" || o.selectID != "7" || !o.rtl || !o.noIndicator {
		t.Errorf("unexpected options %+v", o)
	}

	if _, err := parseFlags([]string{"--form", "ledger"}, io.Discard); err == nil {
		t.Error("expected error for unknown form")
	}
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	cfg, err := loadConfig(options{
		configPath:  filepath.Join(dir, "missing.yaml"),
		catalogPath: filepath.Join(dir, "cat.yaml"),
		form:        config.FormAccount,
		rtl:         true,
		noIndicator: true,
		expandAll:   true,
		output:      filepath.Join(dir, "out.jsonl"),
	})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Catalog != filepath.Join(dir, "cat.yaml") {
		t.Errorf("catalog = %q", cfg.Catalog)
	}
	if cfg.UI.DefaultForm != config.FormAccount || !cfg.RTL() || cfg.UI.ShowIndicator() || !cfg.UI.ExpandAll {
		t.Errorf("ui overrides not applied: %+v", cfg.UI)
	}
	if cfg.OutputPath() != filepath.Join(dir, "out.jsonl") {
		t.Errorf("output = %q", cfg.OutputPath())
	}
}

func decodeReport(t *testing.T, data []byte) treeReport {
	t.Helper()
	var report treeReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decoding %s: %v", data, err)
	}
	return report
}

func TestWriteTreeReport(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTreeReport(&buf, catalog.Default(), "", true); err != nil {
		t.Fatalf("writeTreeReport: %v", err)
	}
	report := decodeReport(t, buf.Bytes())
	if report.Selected != nil {
		t.Errorf("selected = %q, want null", *report.Selected)
	}
	if want := []string{"1", "6", "12"}; !reflect.DeepEqual(report.Expanded, want) {
		t.Errorf("expanded = %v, want %v", report.Expanded, want)
	}
	if tree.Count(report.Roots) != tree.Count(catalog.Default().Expenses) {
		t.Error("roots not reported in full")
	}
	if !strings.Contains(buf.String(), `"selected": null`) {
		t.Errorf("expected explicit null selection:\n%s", buf.String())
	}
}

func TestWriteTreeReportWithSelection(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTreeReport(&buf, catalog.Default(), "7", false); err != nil {
		t.Fatalf("writeTreeReport: %v", err)
	}
	report := decodeReport(t, buf.Bytes())
	if report.Selected == nil || *report.Selected != "7" {
		t.Fatalf("selected = %v, want 7", report.Selected)
	}
	if want := []string{"6", "7"}; !reflect.DeepEqual(report.Expanded, want) {
		t.Errorf("expanded = %v, want %v", report.Expanded, want)
	}
}

func TestRunVersion(t *testing.T) {
	var stdout bytes.Buffer
	if code := run([]string{"--version"}, &stdout, io.Discard); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "tally ") {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestRunBadFlag(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"--no-such-flag"}, io.Discard, &stderr); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestRunRobotTree(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	catPath := filepath.Join(dir, "catalog.yaml")
	cat := catalog.Default()
	cat.Expenses = cat.Expenses[2:]
	if err := catalog.SaveTo(cat, catPath); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"--config", filepath.Join(dir, "none.yaml"),
		"--catalog", catPath,
		"--select", "14",
		"--robot-tree",
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	report := decodeReport(t, stdout.Bytes())
	if report.Selected == nil || *report.Selected != "14" {
		t.Errorf("selected = %v", report.Selected)
	}
	if len(report.Roots) != 1 || report.Roots[0].Name != "Living" {
		t.Errorf("roots = %+v", report.Roots)
	}
}

func TestRunInvalidCatalog(t *testing.T) {
	dir := t.TempDir()
	catPath := filepath.Join(dir, "catalog.yaml")
	bad := catalog.Catalog{Expenses: []tree.Node{tree.Leaf("1", "A"), tree.Leaf("1", "B")}}
	if err := catalog.SaveTo(bad, catPath); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	var stderr bytes.Buffer
	code := run([]string{"--config", filepath.Join(dir, "none.yaml"), "--catalog", catPath, "--robot-tree"}, io.Discard, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "duplicate node id") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
