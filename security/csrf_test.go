package security

import "testing"

func TestCSRFGuard_LazyInit(t *testing.T) {
	g := NewCSRFGuard()

	token := g.Token()
	if token == "" {
		t.Fatal("Token() returned empty token")
	}

	// Stable until cleared or refreshed.
	if g.Token() != token {
		t.Error("Token() changed between reads")
	}
}

func TestCSRFGuard_Validate(t *testing.T) {
	g := NewCSRFGuard()

	if g.Validate("anything") {
		t.Error("Validate() with no token held = true, want false")
	}

	token := g.Generate()
	if !g.Validate(token) {
		t.Error("Validate(Generate()) = false, want true")
	}
	if !g.Validate(g.Token()) {
		t.Error("Validate(Token()) = false, want true")
	}
	if g.Validate("wrong") {
		t.Error("Validate(\"wrong\") = true, want false")
	}
}

func TestCSRFGuard_GenerateReplaces(t *testing.T) {
	g := NewCSRFGuard()

	first := g.Generate()
	second := g.Generate()

	if first == second {
		t.Error("Generate() returned identical tokens")
	}
	if g.Validate(first) {
		t.Error("Validate() accepted a replaced token")
	}
	if !g.Validate(second) {
		t.Error("Validate() rejected the current token")
	}
}

func TestCSRFGuard_Clear(t *testing.T) {
	g := NewCSRFGuard()

	before := g.Token()
	g.Clear()

	if g.Validate(before) {
		t.Error("Validate() accepted a cleared token")
	}

	after := g.Token()
	if after == "" {
		t.Fatal("Token() after Clear() returned empty token")
	}
	if after == before {
		t.Error("Token() after Clear() returned the old token")
	}
}

func TestCSRFGuard_Refresh(t *testing.T) {
	g := NewCSRFGuard()

	before := g.Token()
	refreshed := g.Refresh()

	if refreshed == before {
		t.Error("Refresh() returned the old token")
	}
	if !g.Validate(refreshed) {
		t.Error("Validate() rejected the refreshed token")
	}
}
