// Package selection defines the output kinds a user can request from
// the generation backend and tracks which of them are enabled.
//
// The workspace renders one toggle per kind; presets and the generate
// command name kinds by their display name. Each kind carries the
// value the backend expects in its request field.
package selection

import (
	"fmt"
	"strings"
)

// Category tells which backend request field a kind feeds.
type Category int

const (
	// CategoryDiagram kinds feed diagram_format.
	CategoryDiagram Category = iota
	// CategoryLanguage kinds feed programming_language.
	CategoryLanguage
	// CategoryDocument kinds feed document_format.
	CategoryDocument
)

// String returns the lowercase category name.
func (c Category) String() string {
	switch c {
	case CategoryDiagram:
		return "diagram"
	case CategoryLanguage:
		return "language"
	case CategoryDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Kind is one selectable output kind.
type Kind struct {
	// Name is the display name shown in the workspace grid and used
	// in presets and --type flags.
	Name string
	// Value is what the backend request field receives. Usually the
	// display name; Mermaid is the exception.
	Value string
	// Category selects the request field.
	Category Category
}

// kinds is the canonical grid, in display order.
var kinds = []Kind{
	{Name: "UML", Value: "UML", Category: CategoryDiagram},
	{Name: "Graphviz", Value: "Graphviz", Category: CategoryDiagram},
	{Name: "Mermaid", Value: "Mermaid.js", Category: CategoryDiagram},
	{Name: "Python", Value: "Python", Category: CategoryLanguage},
	{Name: "JavaScript", Value: "JavaScript", Category: CategoryLanguage},
	{Name: "Java", Value: "Java", Category: CategoryLanguage},
	{Name: "C++", Value: "C++", Category: CategoryLanguage},
	{Name: "C#", Value: "C#", Category: CategoryLanguage},
	{Name: "PHP", Value: "PHP", Category: CategoryLanguage},
	{Name: "Ruby", Value: "Ruby", Category: CategoryLanguage},
	{Name: "Go", Value: "Go", Category: CategoryLanguage},
	{Name: "Swift", Value: "Swift", Category: CategoryLanguage},
	{Name: "Kotlin", Value: "Kotlin", Category: CategoryLanguage},
	{Name: "SQL", Value: "SQL", Category: CategoryLanguage},
	{Name: "HTML", Value: "HTML", Category: CategoryLanguage},
	{Name: "CSS", Value: "CSS", Category: CategoryLanguage},
	{Name: "Jira Stories", Value: "Jira Stories", Category: CategoryDocument},
	{Name: "React", Value: "React", Category: CategoryLanguage},
}

// Kinds returns the full grid in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)

	return out
}

// Names returns every kind's display name in grid order.
func Names() []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.Name
	}

	return names
}

// Lookup finds a kind by display name, case-insensitively.
func Lookup(name string) (Kind, bool) {
	for _, k := range kinds {
		if strings.EqualFold(k.Name, name) {
			return k, true
		}
	}

	return Kind{}, false
}

// Selection tracks which output kinds are enabled. Each kind toggles
// independently; enabling one never changes another.
type Selection struct {
	enabled map[string]bool
}

// New returns a selection with every kind disabled.
func New() *Selection {
	return &Selection{enabled: make(map[string]bool, len(kinds))}
}

// Toggle flips one kind by display name.
func (s *Selection) Toggle(name string) error {
	kind, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("unknown output kind %q", name)
	}

	s.enabled[kind.Name] = !s.enabled[kind.Name]

	return nil
}

// Set enables or disables one kind by display name.
func (s *Selection) Set(name string, on bool) error {
	kind, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("unknown output kind %q", name)
	}

	s.enabled[kind.Name] = on

	return nil
}

// IsEnabled reports whether the named kind is enabled.
func (s *Selection) IsEnabled(name string) bool {
	kind, ok := Lookup(name)
	if !ok {
		return false
	}

	return s.enabled[kind.Name]
}

// Enabled returns the enabled kinds in display order.
func (s *Selection) Enabled() []Kind {
	var out []Kind

	for _, k := range kinds {
		if s.enabled[k.Name] {
			out = append(out, k)
		}
	}

	return out
}

// EnabledNames returns the display names of the enabled kinds.
func (s *Selection) EnabledNames() []string {
	enabled := s.Enabled()
	names := make([]string, len(enabled))

	for i, k := range enabled {
		names[i] = k.Name
	}

	return names
}

// Count returns how many kinds are enabled.
func (s *Selection) Count() int {
	n := 0

	for _, on := range s.enabled {
		if on {
			n++
		}
	}

	return n
}

// Reset disables every kind.
func (s *Selection) Reset() {
	s.enabled = make(map[string]bool, len(kinds))
}
