package cli

import "testing"

func TestOptionalIntUnsetByDefault(t *testing.T) {
	var flag OptionalInt
	if _, set := flag.Value(); set {
		t.Fatalf("expected unset flag")
	}
	if flag.String() != "" {
		t.Fatalf("expected empty string for unset flag, got %q", flag.String())
	}
}

func TestOptionalIntSet(t *testing.T) {
	var flag OptionalInt
	if err := flag.Set("42"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	v, set := flag.Value()
	if !set || v != 42 {
		t.Fatalf("expected (42, true), got (%d, %v)", v, set)
	}
	if err := flag.Set("nope"); err == nil {
		t.Fatalf("expected error for non-numeric input")
	}
}

func TestOptionalStringSet(t *testing.T) {
	var flag OptionalString
	if err := flag.Set("gateway"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	v, set := flag.Value()
	if !set || v != "gateway" {
		t.Fatalf("expected (gateway, true), got (%q, %v)", v, set)
	}
}

func TestOptionalBoolSet(t *testing.T) {
	var flag OptionalBool
	if !flag.IsBoolFlag() {
		t.Fatalf("expected IsBoolFlag true")
	}
	if err := flag.Set("true"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	v, set := flag.Value()
	if !set || !v {
		t.Fatalf("expected (true, true), got (%v, %v)", v, set)
	}
	if flag.String() != "true" {
		t.Fatalf("expected string true, got %q", flag.String())
	}
}
