package mangle

import "testing"

func TestIsItaniumEncoding(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"_Z3foo", true},      // one underscore, Z at index 1
		{"__Z3foo", true},     // two underscores
		{"___Z3foo", true},    // three underscores
		{"____Z3foo", true},   // four underscores
		{"_____Z3foo", false}, // five underscores is too many
		{"foo", false},        // no underscore prefix
		{"Z3foo", false},      // marker without underscores
		{"____", false},       // all underscores
		{"_", false},
		{"", false},
		{"_z3foo", false}, // marker is case-sensitive
	}
	for _, tt := range tests {
		if got := IsItaniumEncoding(tt.name); got != tt.want {
			t.Errorf("IsItaniumEncoding(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDemangle(t *testing.T) {
	if got := Demangle("_Z3foov"); got != "foo()" {
		t.Errorf("Demangle(_Z3foov) = %q, want %q", got, "foo()")
	}
	// Unmangled names pass through untouched.
	if got := Demangle("main"); got != "main" {
		t.Errorf("Demangle(main) = %q, want %q", got, "main")
	}
}
