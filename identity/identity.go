// Package identity holds the user's name and email, captured once and
// persisted next to the config.
package identity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MinNameLength is the shortest accepted trimmed name, in runes.
const MinNameLength = 2

// Anonymous is shown where initials cannot be derived.
const Anonymous = "👤"

// UnknownAvatar labels messages from an identity without a name.
const UnknownAvatar = "U"

var (
	ErrNameTooShort = errors.New("name must have at least 2 characters")
	ErrInvalidEmail = errors.New("invalid email address")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Identity is the user's profile.
type Identity struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// Normalize trims both fields.
func (id Identity) Normalize() Identity {
	return Identity{
		Name:  strings.TrimSpace(id.Name),
		Email: strings.TrimSpace(id.Email),
	}
}

// Validate checks both fields, reporting every problem.
func (id Identity) Validate() error {
	return errors.Join(ValidateName(id.Name), ValidateEmail(id.Email))
}

// ValidateName checks the trimmed name length.
func ValidateName(name string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(name)); n < MinNameLength {
		return fmt.Errorf("%w (got %d)", ErrNameTooShort, n)
	}
	return nil
}

// ValidateEmail checks the address shape.
func ValidateEmail(email string) error {
	if !emailRe.MatchString(strings.TrimSpace(email)) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}

// Initials returns the uppercased first letters of the first and last
// words of Name, padded to two with the first initial.
func (id Identity) Initials() string {
	words := strings.Fields(id.Name)
	if len(words) == 0 {
		return Anonymous
	}
	first := firstRune(words[0])
	last := first
	if len(words) > 1 {
		last = firstRune(words[len(words)-1])
	}
	return string([]rune{first, last})
}

// AvatarInitials labels the user's messages: the first letters of the
// first two words of Name, uppercased.
func (id Identity) AvatarInitials() string {
	words := strings.Fields(id.Name)
	if len(words) == 0 {
		return UnknownAvatar
	}
	var out []rune
	for _, w := range words[:min(len(words), 2)] {
		out = append(out, firstRune(w))
	}
	return string(out)
}

// FirstName returns the first word of Name.
func (id Identity) FirstName() string {
	words := strings.Fields(id.Name)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

func firstRune(word string) rune {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.ToUpper(r)
}

// Greeting returns a salutation for the local hour of now.
func Greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h >= 5 && h < 12:
		return "Good morning ☀️"
	case h >= 12 && h < 17:
		return "Good afternoon ⛅"
	case h >= 17 && h < 21:
		return "Good evening 🌅"
	default:
		return "Good night 🌙"
	}
}

// Welcome is the first responder message of a session.
func Welcome(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Hi! Great to see you here! 😊 How can I help you today?"
	}
	return fmt.Sprintf("Hi %s! Great to see you here! 😊 How can I help you today?", name)
}
