package adaptive

import (
	"errors"
	"strings"
	"testing"

	"github.com/hugr-lab/adaptive-filter/widget"
)

func TestLoadOverrides(t *testing.T) {
	doc := `
total_bill: disable
sex: default
day: "Day of Week"
size: {kind: checkbox, label: Party Size}
tip:
  kind: slider
  params:
    step: 0.5
`
	overrides, err := LoadOverrides(strings.NewReader(doc), nil)
	if err != nil {
		t.Fatalf("LoadOverrides failed: %v", err)
	}

	if len(overrides) != 5 {
		t.Fatalf("expected 5 overrides, got %d", len(overrides))
	}
	if !overrides["total_bill"].Disabled {
		t.Error("total_bill should be disabled")
	}
	if !overrides["sex"].IsDefault() {
		t.Error("sex should keep its default")
	}
	if overrides["day"].Label != "Day of Week" {
		t.Errorf("unexpected day label %q", overrides["day"].Label)
	}
	if o := overrides["size"]; o.Label != "Party Size" || o.Kind.Name() != widget.NameCheckbox {
		t.Errorf("unexpected size override %+v", o)
	}
	slider, ok := overrides["tip"].Kind.(widget.NumericSlider)
	if !ok || slider.Step != 0.5 {
		t.Errorf("expected slider with step 0.5, got %#v", overrides["tip"].Kind)
	}
}

func TestLoadOverridesEmpty(t *testing.T) {
	for _, doc := range []string{"", "~\n"} {
		overrides, err := LoadOverrides(strings.NewReader(doc), nil)
		if err != nil {
			t.Errorf("%q: unexpected error %v", doc, err)
			continue
		}
		if len(overrides) != 0 {
			t.Errorf("%q: expected no overrides, got %v", doc, overrides)
		}
	}
}

func TestLoadOverridesErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"not a mapping", "- day\n- tip\n", nil},
		{"unknown kind", "day: {kind: radio}\n", widget.ErrUnknownKind},
		{"bad step", "tip: {kind: slider, params: {step: fast}}\n", nil},
		{"empty mapping", "day: {}\n", nil},
		{"null value", "day:\n", nil},
		{"sequence value", "day: [a, b]\n", nil},
		{"syntax", "day: {kind: \n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadOverrides(strings.NewReader(tt.doc), nil)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if tt.want != nil && !strings.Contains(err.Error(), tt.want.Error()) {
				t.Errorf("expected %q in %v", tt.want, err)
			}
		})
	}
}

func TestLoadOverridesCustomKind(t *testing.T) {
	reg := widget.NewRegistry()
	reg.Register("radio", func(map[string]any) (widget.Kind, error) {
		return widget.CategoricalSelect{}, nil
	})

	overrides, err := LoadOverrides(strings.NewReader("day: {kind: radio}\n"), reg)
	if err != nil {
		t.Fatalf("LoadOverrides failed: %v", err)
	}
	if overrides["day"].Kind == nil {
		t.Error("expected custom kind for day")
	}
}
