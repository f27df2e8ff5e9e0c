package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/export"
	"github.com/kimhsiao/squishylog/internal/models"
)

type cliTestEnv struct {
	configPath string
	dataDir    string
	exportDir  string
	photo      string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	env := &cliTestEnv{
		configPath: filepath.Join(base, "squishy.toml"),
		dataDir:    filepath.Join(base, "data"),
		exportDir:  filepath.Join(base, "exports"),
		photo:      filepath.Join(base, "photo.png"),
	}
	content := fmt.Sprintf("[storage]\ndata_dir = %q\n\n[export]\ndir = %q\n\n[logging]\nlevel = \"error\"\n",
		env.dataDir, env.exportDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	writeTestPhoto(t, env.photo, 64, 48)
	return env
}

func writeTestPhoto(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 240, G: 180, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode photo: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write photo: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// addRecord runs add and returns the new record id.
func addRecord(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, _, err := runCLI(t, append([]string{"add", "--before", env.photo}, args...), env.configPath)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "Added" {
		t.Fatalf("unexpected add output %q", out)
	}
	return fields[1]
}

func TestCLIAddListShow(t *testing.T) {
	env := setupCLITestEnv(t)

	id := addRecord(t, env, "--shop", "  Mochi Lab ", "--mold", "Peach", "--rating", "4", "--price", "$12")

	out, _, err := runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.HasPrefix(out, "ID\tShop\tMold") {
		t.Fatalf("expected TSV header, got %q", out)
	}
	if !strings.Contains(out, "Mochi Lab\tPeach") {
		t.Fatalf("list output missing record: %q", out)
	}

	out, _, err = runCLI(t, []string{"show", id[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"Shop:        Mochi Lab", "Rating:      ★★★★☆", "Photos before: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestCLIAddRequiresBeforePhoto(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"add", "--shop", "A"}, env.configPath)
	if !apperrors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCLIEditAndDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	id := addRecord(t, env, "--shop", "A", "--notes", "soft")

	if _, _, err := runCLI(t, []string{"edit", id, "--shop", "B"}, env.configPath); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	out, _, err := runCLI(t, []string{"show", id}, env.configPath)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "Shop:        B") || !strings.Contains(out, "Notes:       soft") {
		t.Fatalf("edit should only change shop:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"delete", id, "missing"}, env.configPath)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(out, "Deleted "+id) || !strings.Contains(out, "No record missing") {
		t.Fatalf("unexpected delete output %q", out)
	}

	out, _, _ = runCLI(t, []string{"list"}, env.configPath)
	if strings.TrimSpace(out) != "No records" {
		t.Fatalf("expected empty list, got %q", out)
	}
}

func TestCLIDuplicate(t *testing.T) {
	env := setupCLITestEnv(t)
	id := addRecord(t, env, "--shop", "A", "--mold", "Cat", "--texture", "slow")

	if _, _, err := runCLI(t, []string{"duplicate", id}, env.configPath); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("duplicate without photos should fail validation, got %v", err)
	}

	out, _, err := runCLI(t, []string{"duplicate", id, "--before", env.photo, "--mold", "Dog"}, env.configPath)
	if err != nil {
		t.Fatalf("duplicate failed: %v", err)
	}
	copyID := strings.Fields(out)[1]

	out, _, err = runCLI(t, []string{"show", copyID}, env.configPath)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"Shop:        A", "Mold:        Dog", "Texture:     slow"} {
		if !strings.Contains(out, want) {
			t.Errorf("duplicate missing %q:\n%s", want, out)
		}
	}
}

func TestCLIListFilters(t *testing.T) {
	env := setupCLITestEnv(t)
	addRecord(t, env, "--shop", "Alpha", "--squish-date", "2024-01-10")
	addRecord(t, env, "--shop", "Beta", "--squish-date", "2024-03-10")

	out, _, err := runCLI(t, []string{"list", "--from", "2024-02-01"}, env.configPath)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "Beta") || strings.Contains(out, "Alpha") {
		t.Fatalf("date filter output %q", out)
	}

	out, _, _ = runCLI(t, []string{"list", "--search", "ALP"}, env.configPath)
	if !strings.Contains(out, "Alpha") || strings.Contains(out, "Beta") {
		t.Fatalf("search output %q", out)
	}

	if _, _, err := runCLI(t, []string{"list", "--from", "2024-05-01", "--to", "2024-01-01"}, env.configPath); err == nil {
		t.Fatal("expected invalid range error")
	}

	out, _, _ = runCLI(t, []string{"list", "--group"}, env.configPath)
	if !strings.Contains(out, "Beta (1)") || !strings.Contains(out, "Alpha (1)") {
		t.Fatalf("group output %q", out)
	}
}

func TestCLIImages(t *testing.T) {
	env := setupCLITestEnv(t)
	id := addRecord(t, env, "--shop", "A")

	out, _, err := runCLI(t, []string{"images", "add", id, "after", env.photo, env.photo}, env.configPath)
	if err != nil {
		t.Fatalf("images add failed: %v", err)
	}
	if !strings.Contains(out, "after now has 2") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, _, err := runCLI(t, []string{"images", "edit", id, "after", "1", "--filter", "mono", "--text", "hi"}, env.configPath); err != nil {
		t.Fatalf("images edit failed: %v", err)
	}

	if _, _, err := runCLI(t, []string{"images", "edit", id, "after", "1", "--filter", "sparkle"}, env.configPath); !apperrors.Is(err, apperrors.ErrCompositor) {
		t.Fatalf("unknown filter should fail, got %v", err)
	}

	out, _, err = runCLI(t, []string{"images", "remove", id, "after", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("images remove failed: %v", err)
	}
	if !strings.Contains(out, "after now has 1") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, _, err := runCLI(t, []string{"images", "remove", id, "before", "1"}, env.configPath); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("removing the last before photo should fail validation, got %v", err)
	}

	saved := filepath.Join(t.TempDir(), "after.jpg")
	if _, _, err := runCLI(t, []string{"images", "save", id, "after", "1", saved}, env.configPath); err != nil {
		t.Fatalf("images save failed: %v", err)
	}
	data, err := os.ReadFile(saved)
	if err != nil || len(data) < 3 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatalf("saved file is not a JPEG: %v", err)
	}
}

func TestCLIImagesFiltersSkipsConfig(t *testing.T) {
	out, _, err := runCLI(t, []string{"images", "filters"}, filepath.Join(t.TempDir(), "bad.toml"))
	if err != nil {
		t.Fatalf("filters failed: %v", err)
	}
	for _, name := range []string{"none", "vintage", "mono", "vivid"} {
		if !strings.Contains(out, name) {
			t.Errorf("filters output missing %s: %q", name, out)
		}
	}
}

func TestCLIExport(t *testing.T) {
	env := setupCLITestEnv(t)
	addRecord(t, env, "--shop", "A")

	out, _, err := runCLI(t, []string{"export"}, env.configPath)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "Exported 1 record(s)") {
		t.Fatalf("unexpected export output %q", out)
	}

	entries, err := os.ReadDir(env.exportDir)
	if err != nil || len(entries) != 1 || !export.IsBackupName(entries[0].Name()) {
		t.Fatalf("expected one backup in %s: %v", env.exportDir, err)
	}

	out, _, err = runCLI(t, []string{"export", "--stdout"}, env.configPath)
	if err != nil {
		t.Fatalf("export --stdout failed: %v", err)
	}
	var records []models.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("stdout export is not a record list: %v", err)
	}
	if len(records) != 1 || records[0].ShopName != "A" {
		t.Fatalf("unexpected exported records %+v", records)
	}

	out, _, err = runCLI(t, []string{"export", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("export list failed: %v", err)
	}
	if !strings.Contains(out, export.FilePrefix) {
		t.Fatalf("export list output %q", out)
	}
}

func TestCLIStats(t *testing.T) {
	env := setupCLITestEnv(t)
	addRecord(t, env, "--shop", "A", "--price", "12.5元")
	addRecord(t, env, "--shop", "A", "--price", "about 7")
	addRecord(t, env, "--shop", "B")

	out, _, err := runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	for _, want := range []string{"Records:     3", "Photos:      3", "Total spent: 19.50", "A\t2", "B\t1"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestCLIConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("init --overwrite failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"config", "show"}, target)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "[storage]") {
		t.Fatalf("config show output %q", out)
	}
}

func TestCLICorruptStoreWarns(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(env.dataDir, "squishy_log_data.json"), []byte(`{"oops":true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, stderr, err := runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(stderr, "starting with an empty collection") {
		t.Errorf("expected a warning, got %q", stderr)
	}
	if strings.TrimSpace(out) != "No records" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestDescribeError(t *testing.T) {
	capacity := apperrors.New(apperrors.ErrStoreCapacity, "collection exceeds storage quota")
	if got := describeError(capacity); !strings.Contains(got, "squishy export") {
		t.Errorf("capacity error should suggest export: %q", got)
	}
	if got := describeError(errors.New("plain")); got != "plain" {
		t.Errorf("describeError(plain) = %q", got)
	}
}
