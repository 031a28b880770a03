package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestReport(t *testing.T) {
	dir := t.TempDir()
	conf := &ReporterConfig{Destination: filepath.Join(dir, "report.zip")}

	rpt, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if rpt.Name() == "" {
		t.Error("Name() is empty")
	}

	src := filepath.Join(dir, "final.log")
	if err := os.WriteFile(src, []byte("log line\n"), 0600); err != nil {
		t.Fatal(err)
	}
	rpt.Store("final.log", src)
	rpt.StoreData("health-page.yaml", []byte("matched: 1\n"))
	// absent files are silently skipped on finalize
	rpt.Store("gone.log", filepath.Join(dir, "no-such-file"))

	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(conf.Destination)
	if err != nil {
		t.Fatalf("opening report: %v", err)
	}
	defer zr.Close()

	got := make(map[string]string)
	for _, f := range zr.File {
		r, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			t.Fatal(err)
		}
		got[f.Name] = string(data)
	}

	if _, ok := got["MANIFEST"]; !ok {
		t.Error("report has no MANIFEST")
	}
	if got["final.log"] != "log line\n" {
		t.Errorf("final.log = %q", got["final.log"])
	}
	if got["health-page.yaml"] != "matched: 1\n" {
		t.Errorf("health-page.yaml = %q", got["health-page.yaml"])
	}
	if _, ok := got["gone.log"]; ok {
		t.Error("absent file made it into the report")
	}
}

func TestReportNilSafe(t *testing.T) {
	var rpt *Report

	// all methods must be no-ops when no report has been requested
	rpt.Store("final.log", "somewhere")
	rpt.StoreData("health.yaml", []byte("x"))
	if rpt.Name() != "" {
		t.Errorf("Name() = %q, want empty", rpt.Name())
	}
	if err := rpt.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
