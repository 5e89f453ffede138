// Package passwords holds the password policy and the bcrypt hasher.
package passwords

import (
	"fmt"

	"github.com/dmitrijs2005/testmart/internal/common"
)

// MaxBytes is the longest password bcrypt accepts.
const MaxBytes = 72

// Policy describes what a password must contain. Character classes are
// ASCII: any other rune counts as non-alphanumeric. MaxBytes of zero means
// no upper bound.
type Policy struct {
	MinLength          int
	MaxBytes           int
	RequireDigit       bool
	RequireLowercase   bool
	RequireUppercase   bool
	RequireNonAlphanum bool
	MinUniqueChars     int
}

// DefaultPolicy matches the defaults of the server configuration.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:          12,
		MaxBytes:           MaxBytes,
		RequireDigit:       true,
		RequireLowercase:   true,
		RequireUppercase:   true,
		RequireNonAlphanum: true,
		MinUniqueChars:     1,
	}
}

// Validate returns nil or a *common.ValidationError listing every rule the
// password breaks. It has no side effects.
func (p Policy) Validate(password string) error {
	var (
		msgs                                   []string
		hasDigit, hasLower, hasUpper, hasOther bool
		unique                                 = make(map[rune]struct{})
		length                                 int
	)

	for _, r := range password {
		length++
		unique[r] = struct{}{}
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		default:
			hasOther = true
		}
	}

	if length < p.MinLength {
		msgs = append(msgs, fmt.Sprintf("Passwords must be at least %d characters.", p.MinLength))
	}
	if p.MaxBytes > 0 && len(password) > p.MaxBytes {
		msgs = append(msgs, fmt.Sprintf("Passwords must be at most %d bytes long.", p.MaxBytes))
	}
	if p.RequireNonAlphanum && !hasOther {
		msgs = append(msgs, "Passwords must have at least one non alphanumeric character.")
	}
	if p.RequireDigit && !hasDigit {
		msgs = append(msgs, "Passwords must have at least one digit ('0'-'9').")
	}
	if p.RequireLowercase && !hasLower {
		msgs = append(msgs, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if p.RequireUppercase && !hasUpper {
		msgs = append(msgs, "Passwords must have at least one uppercase ('A'-'Z').")
	}
	if len(unique) < p.MinUniqueChars {
		msgs = append(msgs, fmt.Sprintf("Passwords must use at least %d different characters.", p.MinUniqueChars))
	}

	if len(msgs) > 0 {
		return common.NewValidationError(msgs...)
	}
	return nil
}
