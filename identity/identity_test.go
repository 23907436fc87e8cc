package identity

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      Identity
		wantErr []error
	}{
		{"valid", Identity{Name: "Ana Lima", Email: "ana@example.com"}, nil},
		{"two chars", Identity{Name: " Al ", Email: "al@x.io"}, nil},
		{"short name", Identity{Name: " A ", Email: "a@example.com"}, []error{ErrNameTooShort}},
		{"no at", Identity{Name: "Ana", Email: "ana.example.com"}, []error{ErrInvalidEmail}},
		{"no dot", Identity{Name: "Ana", Email: "ana@example"}, []error{ErrInvalidEmail}},
		{"space", Identity{Name: "Ana", Email: "an a@example.com"}, []error{ErrInvalidEmail}},
		{"both", Identity{}, []error{ErrNameTooShort, ErrInvalidEmail}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Fatalf("Validate() error = %v, want %v", err, want)
				}
			}
		})
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"ana maria lima", "AL"},
		{"ana", "AA"},
		{"  élodie  durand ", "ÉD"},
		{"", Anonymous},
		{"   ", Anonymous},
	}
	for _, tt := range tests {
		if got := (Identity{Name: tt.name}).Initials(); got != tt.want {
			t.Errorf("Initials(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestAvatarInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Ana Maria Silva", "AM"},
		{"ana lima", "AL"},
		{"ana", "A"},
		{"  élodie  durand ", "ÉD"},
		{"", UnknownAvatar},
	}
	for _, tt := range tests {
		if got := (Identity{Name: tt.name}).AvatarInitials(); got != tt.want {
			t.Errorf("AvatarInitials(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGreeting(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2024, 1, 1, h, 30, 0, 0, time.Local) }
	tests := []struct {
		hour int
		want string
	}{
		{4, "Good night"},
		{5, "Good morning"},
		{11, "Good morning"},
		{12, "Good afternoon"},
		{16, "Good afternoon"},
		{17, "Good evening"},
		{20, "Good evening"},
		{21, "Good night"},
	}
	for _, tt := range tests {
		if got := Greeting(at(tt.hour)); !strings.HasPrefix(got, tt.want) {
			t.Errorf("Greeting(%02d:30) = %q, want prefix %q", tt.hour, got, tt.want)
		}
	}
}

func TestWelcome(t *testing.T) {
	if got := Welcome(" Ana "); !strings.HasPrefix(got, "Hi Ana!") {
		t.Fatalf("Welcome() = %q", got)
	}
	if got := Welcome(""); !strings.HasPrefix(got, "Hi!") {
		t.Fatalf("Welcome(\"\") = %q", got)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(t.TempDir())

	if _, err := s.Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() on empty dir error = %v, want ErrNotFound", err)
	}
	if err := s.Save(Identity{Name: "  Ana Lima ", Email: " ana@example.com"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != (Identity{Name: "Ana Lima", Email: "ana@example.com"}) {
		t.Fatalf("Load() = %+v", got)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear() error = %v", err)
	}
	if _, err := s.Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() after Clear error = %v", err)
	}
}

func TestFileStoreRejectsInvalid(t *testing.T) {
	s := NewFileStore(t.TempDir())
	if err := s.Save(Identity{Name: "A", Email: "a@b.co"}); !errors.Is(err, ErrNameTooShort) {
		t.Fatalf("Save() error = %v, want ErrNameTooShort", err)
	}

	if err := os.WriteFile(s.Path(), []byte("name: Ana\nemail: nope\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("Load() of invalid file error = %v, want ErrInvalidEmail", err)
	}
}
