package slug

import (
	"context"
	"errors"
	"testing"
)

func TestGuest(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal names ---
		{name: "single word", input: "Budi", want: "budi"},
		{name: "two words", input: "Alex Sam", want: "alex-sam"},
		{name: "honorific and couple", input: "Pak Budi & Ibu", want: "pak-budi-ibu"},
		{name: "digits kept", input: "Table 12", want: "table-12"},

		// --- Punctuation ---
		{name: "apostrophe splits", input: "O'Brien", want: "o-brien"},
		{name: "dots and commas", input: "Dr. Rina, M.Sc.", want: "dr-rina-m-sc"},
		{name: "existing hyphens collapse", input: "Anne--Marie", want: "anne-marie"},
		{name: "underscores become hyphens", input: "some_guest", want: "some-guest"},

		// --- Unicode ---
		{name: "accents dropped", input: "José Núñez", want: "jos-n-ez"},
		{name: "only unicode", input: "王小明", want: GuestFallback},

		// --- Edges ---
		{name: "surrounding whitespace", input: "  Rina  ", want: "rina"},
		{name: "leading and trailing symbols", input: "**VIP**", want: "vip"},
		{name: "empty", input: "", want: GuestFallback},
		{name: "only symbols", input: "!!!", want: GuestFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Guest(tt.input); got != tt.want {
				t.Errorf("Guest(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUnique(t *testing.T) {
	taken := map[string]bool{"budi": true, "budi-2": true}
	exists := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

	tests := []struct {
		base string
		want string
	}{
		{"rina", "rina"},
		{"budi", "budi-3"},
	}
	for _, tt := range tests {
		got, err := Unique(context.Background(), tt.base, exists)
		if err != nil {
			t.Fatalf("Unique(%q): %v", tt.base, err)
		}
		if got != tt.want {
			t.Errorf("Unique(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestUniqueErrors(t *testing.T) {
	boom := errors.New("db down")
	_, err := Unique(context.Background(), "x", func(context.Context, string) (bool, error) { return false, boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want store error", err)
	}

	_, err = Unique(context.Background(), "x", func(context.Context, string) (bool, error) { return true, nil })
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("err = %v, want ErrExhausted", err)
	}
}

func TestValidSubdomain(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"alex-sam", true},
		{"wedding2026", true},
		{"-", true},
		{"", false},
		{"Alex", false},
		{"alex_sam", false},
		{"alex.sam", false},
		{"alex sam", false},
		{"ålex", false},
	}
	for _, tt := range tests {
		if got := ValidSubdomain(tt.in); got != tt.want {
			t.Errorf("ValidSubdomain(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
