package models

import (
	"errors"
	"slices"
	"testing"
)

func TestMergeFlags(t *testing.T) {
	tests := []struct {
		name    string
		current []string
		added   []string
		want    []string
		grew    bool
	}{
		{"both empty", nil, nil, []string{}, false},
		{"add to empty", nil, []string{"devils-advocate"}, []string{"devils-advocate"}, true},
		{"union keeps order", []string{"devils-advocate"}, []string{"pre-mortem"}, []string{"devils-advocate", "pre-mortem"}, true},
		{"duplicate is no-op", []string{"pre-mortem"}, []string{"pre-mortem"}, []string{"pre-mortem"}, false},
		{"blank dropped", []string{"a"}, []string{"", "  "}, []string{"a"}, false},
		{"dedupes added", nil, []string{"x", "x", "y"}, []string{"x", "y"}, true},
		{"dirty current cleaned", []string{"a", "a"}, nil, []string{"a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, grew := MergeFlags(tt.current, tt.added)
			if !slices.Equal(got, tt.want) {
				t.Errorf("MergeFlags(%v, %v) = %v, want %v", tt.current, tt.added, got, tt.want)
			}
			if grew != tt.grew {
				t.Errorf("MergeFlags(%v, %v) grew = %v, want %v", tt.current, tt.added, grew, tt.grew)
			}
		})
	}
}

func TestMergeFlagsNeverShrinks(t *testing.T) {
	flags := []string{}
	for _, add := range [][]string{{"devils-advocate"}, {"pre-mortem"}, {"devils-advocate"}, nil} {
		before := len(flags)
		flags, _ = MergeFlags(flags, add)
		if len(flags) < before {
			t.Fatalf("flag set shrank from %d to %d", before, len(flags))
		}
	}
	if !slices.Equal(flags, []string{"devils-advocate", "pre-mortem"}) {
		t.Errorf("flags = %v", flags)
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"CEO", RoleCEO, false},
		{"cfo", RoleCFO, false},
		{" Clo ", RoleCLO, false},
		{"cio", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownRole) {
					t.Errorf("ParseRole(%q) error = %v, want ErrUnknownRole", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseRole(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestParseCEOMode(t *testing.T) {
	if m, err := ParseCEOMode(""); err != nil || m != CEOLeader {
		t.Errorf("empty mode = %q, %v, want leader", m, err)
	}
	if m, err := ParseCEOMode("Visionary"); err != nil || m != CEOVisionary {
		t.Errorf("Visionary = %q, %v", m, err)
	}
	if _, err := ParseCEOMode("dictator"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("unknown mode error = %v, want ErrUnknownMode", err)
	}
}

func TestParseConversationType(t *testing.T) {
	if ct, err := ParseConversationType(""); err != nil || ct != ConversationQuestion {
		t.Errorf("default type = %q, %v", ct, err)
	}
	if ct, err := ParseConversationType("task-discussion"); err != nil || ct != ConversationTaskDiscussion {
		t.Errorf("task-discussion = %q, %v", ct, err)
	}
	if _, err := ParseConversationType("party"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestAllRolesSortedAndValid(t *testing.T) {
	roles := AllRoles()
	if len(roles) != 6 {
		t.Fatalf("got %d roles, want 6", len(roles))
	}
	if !slices.IsSorted(roles) {
		t.Errorf("roles not sorted: %v", roles)
	}
	for _, r := range roles {
		if !r.Valid() {
			t.Errorf("role %q not valid", r)
		}
	}
}
