package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"loan-compare/internal/config"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBCryptCost = 12

	MinPasswordLength = 12
	MaxPasswordLength = 72 // bcrypt ignores bytes past 72
)

var (
	ErrPasswordEmpty       = errors.New("password cannot be empty")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrPasswordTooLong     = fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	ErrPasswordNoUppercase = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLowercase = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoNumber    = errors.New("password must contain at least one number")
	ErrPasswordNoSpecial   = errors.New("password must contain at least one special character")
)

// PasswordPolicyError lists every rule a candidate password broke, so the
// registration form can show them together
type PasswordPolicyError struct {
	Violations []error
}

func (e *PasswordPolicyError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e *PasswordPolicyError) Unwrap() []error {
	return e.Violations
}

// Messages returns one line per broken rule
func (e *PasswordPolicyError) Messages() []string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return msgs
}

type passwordRule struct {
	enabled bool
	ok      func(string) bool
	err     error
}

// PasswordService hashes passwords and enforces the configured password policy
type PasswordService struct {
	cost  int
	rules []passwordRule
}

// NewPasswordService builds the policy from the security settings. Zero cost
// or length fall back to the defaults.
func NewPasswordService(cfg config.SecurityConfig) PasswordServiceInterface {
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = DefaultBCryptCost
	}
	if cfg.PasswordMinLength == 0 {
		cfg.PasswordMinLength = MinPasswordLength
	}

	minLength := cfg.PasswordMinLength
	return &PasswordService{
		cost: cfg.BCryptCost,
		rules: []passwordRule{
			{
				enabled: true,
				ok:      func(p string) bool { return len(p) >= minLength },
				err:     fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooShort, minLength),
			},
			{enabled: true, ok: func(p string) bool { return len(p) <= MaxPasswordLength }, err: ErrPasswordTooLong},
			{enabled: cfg.RequireUppercase, ok: containsAny(unicode.IsUpper), err: ErrPasswordNoUppercase},
			{enabled: cfg.RequireLowercase, ok: containsAny(unicode.IsLower), err: ErrPasswordNoLowercase},
			{enabled: cfg.RequireNumbers, ok: containsAny(unicode.IsDigit), err: ErrPasswordNoNumber},
			{enabled: cfg.RequireSpecialChars, ok: containsAny(isSpecial), err: ErrPasswordNoSpecial},
		},
	}
}

func containsAny(class func(rune) bool) func(string) bool {
	return func(p string) bool { return strings.IndexFunc(p, class) >= 0 }
}

func isSpecial(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// ValidatePassword returns ErrPasswordEmpty or a *PasswordPolicyError naming
// every broken rule
func (ps *PasswordService) ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}

	var violations []error
	for _, rule := range ps.rules {
		if rule.enabled && !rule.ok(password) {
			violations = append(violations, rule.err)
		}
	}
	if len(violations) > 0 {
		return &PasswordPolicyError{Violations: violations}
	}
	return nil
}

func (ps *PasswordService) HashPassword(password string) (string, error) {
	if err := ps.ValidatePassword(password); err != nil {
		return "", err
	}
	return ps.hash(password)
}

// HashPasswordWithoutValidation skips the policy, for fixtures and hashes
// created before a policy change
func (ps *PasswordService) HashPasswordWithoutValidation(password string) (string, error) {
	if password == "" {
		return "", ErrPasswordEmpty
	}
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	return ps.hash(password)
}

func (ps *PasswordService) ComparePassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (ps *PasswordService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), ps.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
