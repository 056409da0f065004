package security

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
)

// Character classes used by both the strength checks and the generator.
const (
	passwordUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordLowercase = "abcdefghijklmnopqrstuvwxyz"
	passwordDigits    = "0123456789"
	passwordSpecial   = "!@#$%^&*()-_=+[]{};:,.<>?"

	// DefaultGeneratedPasswordLength is used when GenerateStrongPassword is
	// given a non-positive length.
	DefaultGeneratedPasswordLength = 16

	// StrongPasswordMinScore and StrongPasswordMinLength define the policy
	// threshold: a password is strong when it scores at least 4 and is at
	// least 8 characters long.
	StrongPasswordMinScore  = 4
	StrongPasswordMinLength = 8
)

// commonPasswords is the denylist of known-bad passwords, checked as
// substrings of the lowercased candidate. English and Arabic terms, since
// the dashboard serves both locales.
var commonPasswords = []string{
	"password",
	"123456",
	"12345678",
	"123456789",
	"qwerty",
	"abc123",
	"admin",
	"letmein",
	"welcome",
	"iloveyou",
	"كلمةالمرور",
	"كلمةالسر",
	"مرحبا",
	"مستشفى",
}

// StrengthResult is the verdict for one password. It is derived and never
// persisted.
type StrengthResult struct {
	// Score is the additive strength score, 0 to 6.
	Score int

	// Feedback lists the deficiencies found, in the checker's locale.
	Feedback []string

	// IsStrong reports whether the password meets policy:
	// score >= 4 and length >= 8.
	IsStrong bool
}

// Messages is the localized feedback catalog for strength checks.
type Messages struct {
	TooShort       string
	NoUppercase    string
	NoLowercase    string
	NoDigit        string
	NoSpecial      string
	CommonPassword string
	RepeatedRunes  string

	// Labels are the six strength labels ordered from very weak to very
	// strong.
	Labels [6]string
}

// EnglishMessages is the default feedback catalog.
var EnglishMessages = Messages{
	TooShort:       "Password must be at least 8 characters long",
	NoUppercase:    "Add an uppercase letter",
	NoLowercase:    "Add a lowercase letter",
	NoDigit:        "Add a digit",
	NoSpecial:      "Add a special character",
	CommonPassword: "Avoid common passwords",
	RepeatedRunes:  "Avoid repeating the same character",
	Labels: [6]string{
		"very weak", "weak", "fair", "good", "strong", "very strong",
	},
}

// ArabicMessages matches the dashboard's Arabic locale.
var ArabicMessages = Messages{
	TooShort:       "يجب أن تتكون كلمة المرور من 8 أحرف على الأقل",
	NoUppercase:    "أضف حرفًا كبيرًا",
	NoLowercase:    "أضف حرفًا صغيرًا",
	NoDigit:        "أضف رقمًا",
	NoSpecial:      "أضف رمزًا خاصًا",
	CommonPassword: "تجنب كلمات المرور الشائعة",
	RepeatedRunes:  "تجنب تكرار نفس الحرف",
	Labels: [6]string{
		"ضعيفة جدًا", "ضعيفة", "مقبولة", "جيدة", "قوية", "قوية جدًا",
	},
}

// PasswordChecker evaluates password strength against the dashboard policy
// with a localized feedback catalog.
type PasswordChecker struct {
	messages Messages
}

// NewPasswordChecker creates a checker using the given feedback catalog.
func NewPasswordChecker(messages Messages) *PasswordChecker {
	return &PasswordChecker{messages: messages}
}

// CheckStrength scores password with independent additive checks:
// up to 2 points for length (>=8, >=12), one each for an uppercase letter,
// a lowercase letter, a digit, and a special-or-uppercase character. A
// denylist hit subtracts one point, floored at zero. Four or more repeats
// of the same character add feedback without a penalty.
func (c *PasswordChecker) CheckStrength(password string) StrengthResult {
	var res StrengthResult
	runes := []rune(password)

	if len(runes) >= StrongPasswordMinLength {
		res.Score++
		if len(runes) >= 12 {
			res.Score++
		}
	} else {
		res.Feedback = append(res.Feedback, c.messages.TooShort)
	}

	if strings.ContainsFunc(password, unicode.IsUpper) {
		res.Score++
	} else {
		res.Feedback = append(res.Feedback, c.messages.NoUppercase)
	}

	if strings.ContainsFunc(password, unicode.IsLower) {
		res.Score++
	} else {
		res.Feedback = append(res.Feedback, c.messages.NoLowercase)
	}

	if strings.ContainsFunc(password, unicode.IsDigit) {
		res.Score++
	} else {
		res.Feedback = append(res.Feedback, c.messages.NoDigit)
	}

	if hasSpecialOrUpper(password) {
		res.Score++
	} else {
		res.Feedback = append(res.Feedback, c.messages.NoSpecial)
	}

	if containsCommonPassword(password) {
		if res.Score > 0 {
			res.Score--
		}
		res.Feedback = append(res.Feedback, c.messages.CommonPassword)
	}

	if hasLongRun(runes, 4) {
		res.Feedback = append(res.Feedback, c.messages.RepeatedRunes)
	}

	res.IsStrong = res.Score >= StrongPasswordMinScore && len(runes) >= StrongPasswordMinLength
	return res
}

// StrengthLabel maps a score to one of the six ordered labels in the
// checker's locale.
func (c *PasswordChecker) StrengthLabel(score int) string {
	switch {
	case score <= 1:
		return c.messages.Labels[0]
	case score <= 2:
		return c.messages.Labels[1]
	case score <= 3:
		return c.messages.Labels[2]
	case score <= 4:
		return c.messages.Labels[3]
	case score <= 5:
		return c.messages.Labels[4]
	default:
		return c.messages.Labels[5]
	}
}

// hasSpecialOrUpper reports whether the password contains a special
// character or an uppercase letter. The uppercase half duplicates the
// dedicated uppercase check; the scoring keeps that overlap for parity
// with the deployed dashboard, and isolating it here makes a future policy
// change a one-line edit.
func hasSpecialOrUpper(password string) bool {
	for _, r := range password {
		if unicode.IsUpper(r) || strings.ContainsRune(passwordSpecial, r) {
			return true
		}
	}
	return false
}

// containsCommonPassword reports whether the lowercased password contains
// any denylist entry as a substring.
func containsCommonPassword(password string) bool {
	lower := strings.ToLower(password)
	for _, common := range commonPasswords {
		if strings.Contains(lower, common) {
			return true
		}
	}
	return false
}

// hasLongRun reports whether any rune repeats at least n times
// consecutively.
func hasLongRun(runes []rune, n int) bool {
	run := 0
	var prev rune
	for i, r := range runes {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

// GenerateStrongPassword generates a password of the given length with at
// least one character from each class, the remainder drawn uniformly from
// the combined alphabet, shuffled with a CSPRNG-backed Fisher-Yates. The
// result is suitable as a real credential, not only a UI suggestion.
func GenerateStrongPassword(length int) (string, error) {
	if length < 4 {
		length = DefaultGeneratedPasswordLength
	}

	combined := passwordUppercase + passwordLowercase + passwordDigits + passwordSpecial

	out := make([]byte, 0, length)
	for _, class := range []string{passwordUppercase, passwordLowercase, passwordDigits, passwordSpecial} {
		c, err := randomByte(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := randomByte(combined)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates so the guaranteed class characters do not cluster at
	// the front.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func randomByte(alphabet string) (byte, error) {
	i, err := randomInt(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
