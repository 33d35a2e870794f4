package preset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFrom_BuiltinsOnly(t *testing.T) {
	presets, err := LoadFrom(filepath.Join(t.TempDir(), "presets.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if len(presets) == 0 {
		t.Fatal("no built-in presets loaded")
	}

	diagram, ok := presets["diagram"]
	if !ok {
		t.Fatal("built-in preset \"diagram\" missing")
	}
	if diagram.Source != SourceBuiltin {
		t.Errorf("source = %q, want %q", diagram.Source, SourceBuiltin)
	}
	if len(diagram.Kinds) != 1 || diagram.Kinds[0] != "Mermaid" {
		t.Errorf("kinds = %v, want [Mermaid]", diagram.Kinds)
	}
}

func TestLoadFrom_UserWinsByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.toml")
	doc := "[preset.diagram]\nkinds = [\"UML\", \"Graphviz\"]\n\n[preset.mine]\nkinds = [\"Go\"]\nrequirement = \"CLI for: \"\n"

	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	presets, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	diagram := presets["diagram"]
	if diagram.Source != SourceUser {
		t.Errorf("overridden preset source = %q, want %q", diagram.Source, SourceUser)
	}
	if len(diagram.Kinds) != 2 || diagram.Kinds[0] != "UML" {
		t.Errorf("kinds = %v, want user override", diagram.Kinds)
	}

	mine := presets["mine"]
	if mine.Requirement != "CLI for: " {
		t.Errorf("requirement = %q", mine.Requirement)
	}

	// Untouched built-ins survive the merge.
	if _, ok := presets["stories"]; !ok {
		t.Error("built-in preset \"stories\" missing after merge")
	}
}

func TestLoadFrom_UnknownKindNamesOffender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.toml")
	doc := "[preset.bad]\nkinds = [\"Mermaid\", \"Jira Tickets\"]\n"

	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("LoadFrom() should fail on unknown kind")
	}
	if !strings.Contains(err.Error(), `preset "bad"`) || !strings.Contains(err.Error(), `"Jira Tickets"`) {
		t.Errorf("error should name the preset and the kind, got: %v", err)
	}
}

func TestLoadFrom_UnknownFieldRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.toml")
	doc := "[preset.bad]\nkinds = [\"Go\"]\ncolour = \"red\"\n"

	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom() should fail on unknown field")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "presets.toml")

	first := Preset{Kinds: []string{"Go", "SQL"}, Requirement: "Service for: "}
	if err := Save(path, "backend", first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := Preset{Kinds: []string{"Kotlin"}}
	if err := Save(path, "mobile", second); err != nil {
		t.Fatalf("Save() second error = %v", err)
	}

	presets, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	backend, ok := presets["backend"]
	if !ok {
		t.Fatal("saved preset \"backend\" missing")
	}
	if backend.Source != SourceUser {
		t.Errorf("source = %q, want %q", backend.Source, SourceUser)
	}
	if backend.Requirement != "Service for: " {
		t.Errorf("requirement = %q", backend.Requirement)
	}
	if len(backend.Kinds) != 2 || backend.Kinds[1] != "SQL" {
		t.Errorf("kinds = %v", backend.Kinds)
	}

	// The second save must not clobber the first entry.
	if _, ok := presets["mobile"]; !ok {
		t.Error("saved preset \"mobile\" missing")
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.toml")

	if err := Save(path, "", Preset{Kinds: []string{"Go"}}); err == nil {
		t.Error("Save() with empty name should fail")
	}
	if err := Save(path, "empty", Preset{}); err == nil {
		t.Error("Save() with no kinds should fail")
	}
	if err := Save(path, "bad", Preset{Kinds: []string{"Brainfuck"}}); err == nil {
		t.Error("Save() with unknown kind should fail")
	}
}

func TestPreset_Selection(t *testing.T) {
	p := Preset{Kinds: []string{"Mermaid", "Jira Stories"}}

	s, err := p.Selection()
	if err != nil {
		t.Fatalf("Selection() error = %v", err)
	}

	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}
	if !s.IsEnabled("Mermaid") || !s.IsEnabled("Jira Stories") {
		t.Error("selection missing named kinds")
	}
	if s.IsEnabled("Python") {
		t.Error("selection enabled a kind the preset does not name")
	}
}

func TestNames_Sorted(t *testing.T) {
	presets := map[string]Preset{
		"zeta":  {Kinds: []string{"Go"}},
		"alpha": {Kinds: []string{"Go"}},
	}

	names := Names(presets)
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("Names() = %v, want [alpha zeta]", names)
	}
}

func TestBuiltinsValidate(t *testing.T) {
	presets, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	for name, p := range presets {
		s, selErr := p.Selection()
		if selErr != nil {
			t.Errorf("built-in %q does not build a selection: %v", name, selErr)
			continue
		}

		if s.Count() != len(p.Kinds) {
			t.Errorf("built-in %q: %d kinds enabled, want %d", name, s.Count(), len(p.Kinds))
		}
	}
}
