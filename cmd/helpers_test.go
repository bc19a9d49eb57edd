package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inovacc/objrepo/internal/model"
	"github.com/inovacc/objrepo/internal/repository"
	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{name: "short", input: "abc", maxLen: 10, expected: "abc"},
		{name: "exact", input: "abcdef", maxLen: 6, expected: "abcdef"},
		{name: "ellipsis", input: "abcdefghij", maxLen: 6, expected: "abc..."},
		{name: "tiny limit", input: "abcdef", maxLen: 2, expected: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateString(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}

func TestCenterString(t *testing.T) {
	if got := centerString("ab", 6); got != "  ab  " {
		t.Errorf("centerString = %q", got)
	}

	if got := centerString("abc", 6); got != " abc  " {
		t.Errorf("centerString odd padding = %q", got)
	}

	if got := centerString("toolong", 3); got != "toolong" {
		t.Errorf("centerString overflow = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	if _, err := expandPath(""); err == nil {
		t.Error("expected error for empty path")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := expandPath("~/data/repo.db")
	if err != nil {
		t.Fatal(err)
	}

	if want := filepath.Join(home, "data", "repo.db"); got != want {
		t.Errorf("expandPath(~) = %q, want %q", got, want)
	}

	got, err = expandPath("repo.db")
	if err != nil {
		t.Fatal(err)
	}

	if !filepath.IsAbs(got) {
		t.Errorf("expandPath returned relative path %q", got)
	}
}

func TestPrintInfoBox(t *testing.T) {
	var buf bytes.Buffer

	printInfoBox(&buf, "Store", map[string]string{"path": "/tmp/x.db", "backend": "bolt"}, []string{"path", "missing", "backend"})

	out := buf.String()
	if !strings.Contains(out, "path: /tmp/x.db") || !strings.Contains(out, "backend: bolt") {
		t.Errorf("box is missing items:\n%s", out)
	}

	if strings.Contains(out, "missing") {
		t.Errorf("box printed an absent key:\n%s", out)
	}

	if n := strings.Count(out, "\n"); n != 6 {
		t.Errorf("box has %d lines, want 6", n)
	}
}

func TestDecodeRecords(t *testing.T) {
	notes, err := schema.Default.Lookup(model.NoteSchema)
	if err != nil {
		t.Fatal(err)
	}

	recs, err := decodeRecords(notes, []byte(` {"id":7,"title":"groceries","tags":["home"]} `))
	if err != nil {
		t.Fatal(err)
	}

	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}

	note := recs[0].(*model.Note)
	if note.ID != 7 || note.Title != "groceries" || !note.HasTag("home") {
		t.Errorf("unexpected note %+v", note)
	}

	bookmarks, err := schema.Default.Lookup(model.BookmarkSchema)
	if err != nil {
		t.Fatal(err)
	}

	recs, err = decodeRecords(bookmarks, []byte(`[{"url":"https://go.dev"},{"id":"fixed","url":"https://pkg.go.dev"}]`))
	if err != nil {
		t.Fatal(err)
	}

	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	if id := recs[0].(*model.Bookmark).ID; id == "" {
		t.Error("bookmark without id was not assigned one")
	}

	if id := recs[1].(*model.Bookmark).ID; id != "fixed" {
		t.Errorf("bookmark id = %q, want fixed", id)
	}

	for _, bad := range []string{"", "   ", "[{", "not json"} {
		if _, err := decodeRecords(notes, []byte(bad)); err == nil {
			t.Errorf("decodeRecords(%q) expected error", bad)
		}
	}
}

func TestExportRoundTrip(t *testing.T) {
	payload := []byte(`{"version":1,"records":{}}`)

	encoded, err := encodeExport(payload, "hunter2")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(encoded, exportMagic+":") {
		t.Fatalf("missing header: %q", encoded)
	}

	decoded, err := decodeExport(encoded+"\n", "hunter2")
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(decoded, payload) {
		t.Errorf("decoded %q, want %q", decoded, payload)
	}

	if _, err := decodeExport(encoded, "wrong"); err == nil {
		t.Error("expected error for wrong password")
	}

	if _, err := decodeExport("CLONR:abc", "hunter2"); err == nil {
		t.Error("expected error for foreign header")
	}

	if _, err := decodeExport(exportMagic+":", "hunter2"); err == nil {
		t.Error("expected error for empty body")
	}
}

func resetStoreFlags(t *testing.T) {
	t.Helper()

	dbPath, backend, configFile, askKey = "", "", "", false

	t.Cleanup(func() {
		dbPath, backend, configFile, askKey = "", "", "", false
	})
}

func TestLoadStoreConfig(t *testing.T) {
	resetStoreFlags(t)

	dir := t.TempDir()
	configFile = filepath.Join(dir, "objrepo.ini")

	ini := "[store]\npath = " + filepath.Join(dir, "from-file.db") + "\nbackend = sqlite\nschema_version = 3\ntimeout = 5s\n"
	if err := os.WriteFile(configFile, []byte(ini), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, explicit, err := loadStoreConfig()
	if err != nil {
		t.Fatal(err)
	}

	if !explicit {
		t.Error("config file should make the configuration explicit")
	}

	if cfg.Backend != store.BackendSQLite || cfg.SchemaVersion != 3 || cfg.Timeout != 5*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}

	if cfg.Path != filepath.Join(dir, "from-file.db") {
		t.Errorf("path = %q", cfg.Path)
	}

	dbPath = filepath.Join(dir, "flag.db")
	backend = store.BackendBolt

	cfg, _, err = loadStoreConfig()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Path != dbPath || cfg.Backend != store.BackendBolt {
		t.Errorf("flags did not override file: %+v", cfg)
	}

	configFile = filepath.Join(dir, "missing.ini")
	if _, _, err := loadStoreConfig(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadStoreConfigPathOnly(t *testing.T) {
	resetStoreFlags(t)

	dbPath = filepath.Join(t.TempDir(), "only.db")

	cfg, explicit, err := loadStoreConfig()
	if err != nil {
		t.Fatal(err)
	}

	if explicit {
		t.Error("a bare --db should not be explicit")
	}

	if cfg.Path != dbPath {
		t.Errorf("path = %q, want %q", cfg.Path, dbPath)
	}
}

type gizmo struct {
	ID int64 `json:"id"`
}

func (*gizmo) SchemaName() string { return "gizmo" }

func (g *gizmo) PrimaryKey() schema.Key { return schema.IntKey(g.ID) }

func TestLookupSchemaUsesStoreRegistry(t *testing.T) {
	reg := schema.NewRegistry()
	reg.MustRegister(schema.Schema{Name: "gizmo", Key: schema.KeyInt, New: func() schema.Record { return &gizmo{} }})

	svc, err := repository.NewWith(store.Config{
		Path:     filepath.Join(t.TempDir(), "custom.db"),
		Backend:  store.BackendBolt,
		Registry: reg,
	})
	if err != nil {
		t.Fatal(err)
	}

	defer func() { _ = svc.Close() }()

	sch, err := lookupSchema(svc, "gizmo")
	if err != nil {
		t.Fatalf("lookupSchema(gizmo): %v", err)
	}

	recs, err := decodeRecords(sch, []byte(`{"id":5}`))
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.AddOrUpdateAll(recs...); err != nil {
		t.Fatal(err)
	}

	rec, err := lookupRecord(svc, "gizmo", "5")
	if err != nil || rec == nil {
		t.Fatalf("lookupRecord(gizmo, 5) = %v, %v", rec, err)
	}

	if _, err := lookupSchema(svc, model.NoteSchema); err == nil {
		t.Error("lookupSchema found a schema outside the store's registry")
	}
}
