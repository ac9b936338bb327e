package chart

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseKind(t *testing.T) {
	valid := []string{"line", "bar", "barh", "kde", "density", "area", "hist", "box", "pie", "scatter", "hexbin"}
	for _, name := range valid {
		t.Run(name, func(t *testing.T) {
			k, err := ParseKind(name)
			if err != nil {
				t.Fatalf("ParseKind(%q) error = %v", name, err)
			}
			if string(k) != name {
				t.Errorf("ParseKind(%q) = %q", name, k)
			}
		})
	}

	invalid := []string{"triangle", "", "Bar", "pie "}
	for _, name := range invalid {
		t.Run("invalid "+name, func(t *testing.T) {
			if _, err := ParseKind(name); err == nil {
				t.Errorf("ParseKind(%q) expected error, got nil", name)
			}
		})
	}
}

func TestInvalidKindError(t *testing.T) {
	single := &InvalidKindError{Kinds: []string{"triangle"}}
	if msg := single.Error(); !strings.Contains(msg, `"triangle"`) || !strings.Contains(msg, "allowed kinds") {
		t.Errorf("Error() = %q, want offending kind and allowed list", msg)
	}

	multi := &InvalidKindError{Kinds: []string{"triangle", "circle"}}
	msg := multi.Error()
	if !strings.Contains(msg, `"triangle"`) || !strings.Contains(msg, `"circle"`) {
		t.Errorf("Error() = %q, want both offending kinds listed", msg)
	}
}

func TestCountValues(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []ValueCount
	}{
		{
			name:  "descending by count",
			input: []string{"b", "a", "b", "c", "a", "b"},
			want:  []ValueCount{{"b", 3}, {"a", 2}, {"c", 1}},
		},
		{
			name:  "ties keep first appearance order",
			input: []string{"x", "y", "x", "y"},
			want:  []ValueCount{{"x", 2}, {"y", 2}},
		},
		{
			name:  "single value",
			input: []string{"only", "only"},
			want:  []ValueCount{{"only", 2}},
		},
		{
			name:  "empty input",
			input: nil,
			want:  []ValueCount{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountValues(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CountValues() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCountValuesDeterministic(t *testing.T) {
	input := []string{"Tue", "Wed", "Thu", "Tue", "Wed", "Tue", "Fri", "Sat", "Sat"}

	first := CountValues(input)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, CountValues(input)); diff != "" {
			t.Fatalf("CountValues() unstable on run %d (-first +now):\n%s", i, diff)
		}
	}
}

func TestPanelsFromLists(t *testing.T) {
	panels, err := PanelsFromLists(
		[]string{"weekday_name", "weekday_name"},
		[]string{"bar", "pie"},
		[]string{"Activity Count by Day of Week", "Days of the week"},
	)
	if err != nil {
		t.Fatalf("PanelsFromLists() error = %v", err)
	}

	want := []Panel{
		{Category: "weekday_name", Kind: "bar", Title: "Activity Count by Day of Week"},
		{Category: "weekday_name", Kind: "pie", Title: "Days of the week"},
	}
	if diff := cmp.Diff(want, panels); diff != "" {
		t.Errorf("panels mismatch (-want +got):\n%s", diff)
	}
}

func TestPanelsFromListsErrors(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		kinds      []string
		titles     []string
	}{
		{"more kinds than categories", []string{"a"}, []string{"bar", "pie"}, []string{"t"}},
		{"missing titles", []string{"a", "b"}, []string{"bar", "pie"}, []string{"t"}},
		{"all empty", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PanelsFromLists(tt.categories, tt.kinds, tt.titles); err == nil {
				t.Error("PanelsFromLists() expected error, got nil")
			}
		})
	}
}

func TestLoadPanels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panels.yaml")
	content := `panels:
  - category: weekday_name
    kind: bar
    title: Activity Count by Day of Week
  - category: hour
    kind: line
    title: Hourly spread
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write panels file: %v", err)
	}

	panels, err := LoadPanels(path)
	if err != nil {
		t.Fatalf("LoadPanels() error = %v", err)
	}

	want := []Panel{
		{Category: "weekday_name", Kind: "bar", Title: "Activity Count by Day of Week"},
		{Category: "hour", Kind: "line", Title: "Hourly spread"},
	}
	if diff := cmp.Diff(want, panels); diff != "" {
		t.Errorf("panels mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPanelsErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadPanels(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("LoadPanels() expected error, got nil")
		}
	})

	t.Run("no panels", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "panels.yaml")
		if err := os.WriteFile(path, []byte("panels: []\n"), 0o644); err != nil {
			t.Fatalf("failed to write panels file: %v", err)
		}
		if _, err := LoadPanels(path); err == nil {
			t.Error("LoadPanels() expected error, got nil")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "panels.yaml")
		if err := os.WriteFile(path, []byte("panels: [\n"), 0o644); err != nil {
			t.Fatalf("failed to write panels file: %v", err)
		}
		if _, err := LoadPanels(path); err == nil {
			t.Error("LoadPanels() expected error, got nil")
		}
	})
}
