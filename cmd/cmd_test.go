package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"batchstamp/internal/pdfgen"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSampleStampScan(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "")
	dir := t.TempDir()
	form := filepath.Join(dir, "form.pdf")

	if _, err := execute(t, "sample", "-o", form, "--pages", "3", "--label-pages", "1,3"); err != nil {
		t.Fatalf("sample: %v", err)
	}

	out, err := execute(t, "stamp", form, "--batch", "BN001234")
	if err != nil {
		t.Fatalf("stamp: %v", err)
	}
	if !strings.Contains(out, "Added batch number to 2 page(s)") {
		t.Errorf("stamp output = %q", out)
	}
	stamped := filepath.Join(dir, "form_BN001234.pdf")
	original, _ := os.ReadFile(form)
	result, err := os.ReadFile(stamped)
	if err != nil {
		t.Fatalf("stamped file: %v", err)
	}
	if !bytes.HasPrefix(result, original) {
		t.Error("stamped file does not extend the original")
	}

	out, err = execute(t, "scan", form, "--json")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var scan ScanOutput
	if err := json.Unmarshal([]byte(out), &scan); err != nil {
		t.Fatalf("scan output is not JSON: %v (%q)", err, out)
	}
	if scan.PagesTotal != 3 || len(scan.Positions) != 2 || scan.Positions[0].Page != 1 || scan.Positions[1].Page != 3 {
		t.Errorf("scan = %+v", scan)
	}
}

func TestStampWithoutLabel(t *testing.T) {
	dir := t.TempDir()
	form := filepath.Join(dir, "blank.pdf")

	data, err := pdfgen.Build(pdfgen.SampleForm(2, nil), pdfgen.Options{})
	if err != nil {
		t.Fatalf("pdfgen.Build: %v", err)
	}
	if err := os.WriteFile(form, data, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = execute(t, "stamp", form, "--batch", "X1", "-o", filepath.Join(dir, "out.pdf"))
	if err == nil || !strings.Contains(err.Error(), "Could not find the text 'Batch Number:'") {
		t.Errorf("err = %v, want the label warning", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out.pdf")); !os.IsNotExist(statErr) {
		t.Error("no output should be written when the label is missing")
	}
}

func TestSampleRejectsBadLabelPage(t *testing.T) {
	_, err := execute(t, "sample", "-o", filepath.Join(t.TempDir(), "x.pdf"), "--pages", "2", "--label-pages", "5")
	if err == nil {
		t.Error("expected an error for a label page beyond the document")
	}
}

func TestScanRejectsInvalidFile(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "")
	path := filepath.Join(t.TempDir(), "notes.pdf")
	if err := os.WriteFile(path, []byte("plain text, no header"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "scan", path)
	if err == nil || !strings.Contains(err.Error(), "invalid or corrupted PDF file") {
		t.Errorf("err = %v, want the invalid PDF error", err)
	}
}
