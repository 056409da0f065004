package security

import (
	"strings"
	"testing"
)

func TestPasswordChecker_CheckStrength(t *testing.T) {
	checker := NewPasswordChecker(EnglishMessages)

	tests := []struct {
		name       string
		password   string
		wantScore  int
		wantStrong bool
	}{
		{
			name:       "single lowercase letter",
			password:   "a",
			wantScore:  1,
			wantStrong: false,
		},
		{
			name:       "empty",
			password:   "",
			wantScore:  0,
			wantStrong: false,
		},
		{
			name:       "short but varied",
			password:   "Ab1!",
			wantScore:  4,
			wantStrong: false, // below the length floor
		},
		{
			name:       "long all-lowercase",
			password:   "justlowercaseletters",
			wantScore:  3,
			wantStrong: false,
		},
		{
			name:       "strong password",
			password:   "Str0ng!Pass123",
			wantScore:  6,
			wantStrong: true,
		},
		{
			name:       "mixed without special",
			password:   "Abcdef12",
			wantScore:  5, // uppercase satisfies the special-or-upper check
			wantStrong: true,
		},
		{
			name:       "unicode counted by runes",
			password:   "كلمه١٢٣٤",
			wantScore:  2, // length plus Arabic-Indic digits; no case
			wantStrong: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := checker.CheckStrength(tt.password)
			if res.Score != tt.wantScore {
				t.Errorf("CheckStrength(%q).Score = %d, want %d", tt.password, res.Score, tt.wantScore)
			}
			if res.IsStrong != tt.wantStrong {
				t.Errorf("CheckStrength(%q).IsStrong = %v, want %v", tt.password, res.IsStrong, tt.wantStrong)
			}
		})
	}
}

func TestPasswordChecker_CommonPasswordPenalty(t *testing.T) {
	checker := NewPasswordChecker(EnglishMessages)

	// Structurally identical passwords; only the denylist hit differs.
	common := checker.CheckStrength("Password1!xyz")
	clean := checker.CheckStrength("Blueline1!xyz")

	if got := clean.Score - common.Score; got != 1 {
		t.Errorf("denylist penalty = %d, want 1 (clean %d, common %d)",
			got, clean.Score, common.Score)
	}

	found := false
	for _, f := range common.Feedback {
		if f == EnglishMessages.CommonPassword {
			found = true
		}
	}
	if !found {
		t.Error("CheckStrength() missing common-password feedback")
	}
}

func TestPasswordChecker_ScoreFloor(t *testing.T) {
	checker := NewPasswordChecker(EnglishMessages)

	// Denylist hit with nothing else scoring must not go negative.
	res := checker.CheckStrength("مرحبا")
	if res.Score != 0 {
		t.Errorf("CheckStrength() score = %d, want 0", res.Score)
	}
}

func TestPasswordChecker_RepeatedRunesFeedback(t *testing.T) {
	checker := NewPasswordChecker(EnglishMessages)

	with := checker.CheckStrength("Aaaaab3!q")
	without := checker.CheckStrength("Abcdef3!q")

	if with.Score != without.Score {
		t.Errorf("repeated runes changed score: %d vs %d", with.Score, without.Score)
	}

	found := false
	for _, f := range with.Feedback {
		if f == EnglishMessages.RepeatedRunes {
			found = true
		}
	}
	if !found {
		t.Error("CheckStrength() missing repeated-runes feedback")
	}
}

func TestPasswordChecker_Feedback(t *testing.T) {
	checker := NewPasswordChecker(EnglishMessages)

	res := checker.CheckStrength("abc")
	want := []string{
		EnglishMessages.TooShort,
		EnglishMessages.NoUppercase,
		EnglishMessages.NoDigit,
		EnglishMessages.NoSpecial,
	}

	if len(res.Feedback) != len(want) {
		t.Fatalf("Feedback = %v, want %v", res.Feedback, want)
	}
	for i := range want {
		if res.Feedback[i] != want[i] {
			t.Errorf("Feedback[%d] = %q, want %q", i, res.Feedback[i], want[i])
		}
	}
}

func TestPasswordChecker_ArabicMessages(t *testing.T) {
	checker := NewPasswordChecker(ArabicMessages)

	res := checker.CheckStrength("abc")
	if len(res.Feedback) == 0 || res.Feedback[0] != ArabicMessages.TooShort {
		t.Errorf("Feedback = %v, want first entry %q", res.Feedback, ArabicMessages.TooShort)
	}
}

func TestPasswordChecker_StrengthLabel(t *testing.T) {
	checker := NewPasswordChecker(EnglishMessages)

	tests := []struct {
		score int
		want  string
	}{
		{0, "very weak"},
		{1, "very weak"},
		{2, "weak"},
		{3, "fair"},
		{4, "good"},
		{5, "strong"},
		{6, "very strong"},
	}

	for _, tt := range tests {
		if got := checker.StrengthLabel(tt.score); got != tt.want {
			t.Errorf("StrengthLabel(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestGenerateStrongPassword(t *testing.T) {
	checker := NewPasswordChecker(EnglishMessages)

	for i := 0; i < 20; i++ {
		pw, err := GenerateStrongPassword(20)
		if err != nil {
			t.Fatalf("GenerateStrongPassword() error = %v", err)
		}
		if len(pw) != 20 {
			t.Fatalf("GenerateStrongPassword() length = %d, want 20", len(pw))
		}

		if !strings.ContainsAny(pw, passwordUppercase) {
			t.Errorf("GenerateStrongPassword() = %q, missing uppercase", pw)
		}
		if !strings.ContainsAny(pw, passwordLowercase) {
			t.Errorf("GenerateStrongPassword() = %q, missing lowercase", pw)
		}
		if !strings.ContainsAny(pw, passwordDigits) {
			t.Errorf("GenerateStrongPassword() = %q, missing digit", pw)
		}
		if !strings.ContainsAny(pw, passwordSpecial) {
			t.Errorf("GenerateStrongPassword() = %q, missing special character", pw)
		}

		if res := checker.CheckStrength(pw); !res.IsStrong {
			t.Errorf("GenerateStrongPassword() = %q scored %d, not strong", pw, res.Score)
		}
	}
}

func TestGenerateStrongPassword_DefaultLength(t *testing.T) {
	pw, err := GenerateStrongPassword(0)
	if err != nil {
		t.Fatalf("GenerateStrongPassword() error = %v", err)
	}
	if len(pw) != DefaultGeneratedPasswordLength {
		t.Errorf("GenerateStrongPassword(0) length = %d, want %d", len(pw), DefaultGeneratedPasswordLength)
	}
}
