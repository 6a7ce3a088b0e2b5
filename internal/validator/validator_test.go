package validator

import "testing"

func TestValidateUsername(t *testing.T) {
	valid := []string{"alice", "bob_42", "ABC", "someone_with_a_long_name_here"}
	for _, username := range valid {
		if err := ValidateUsername(username); err != nil {
			t.Errorf("ValidateUsername(%q) = %v, want nil", username, err)
		}
	}
	invalid := []string{"", "ab", "has space", "dash-user", "way_too_long_username_over_thirty_chars"}
	for _, username := range invalid {
		if err := ValidateUsername(username); err == nil {
			t.Errorf("ValidateUsername(%q) = nil, want error", username)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("12345678"); err != nil {
		t.Errorf("eight characters: %v, want nil", err)
	}
	if err := ValidatePassword("1234567"); err == nil {
		t.Error("seven characters: nil, want error")
	}
}

func TestValidateCategory(t *testing.T) {
	for _, category := range []string{"tech", "creative", "education", "household", "transportation", "care", "mixed", "other"} {
		if err := ValidateCategory(category); err != nil {
			t.Errorf("ValidateCategory(%q) = %v, want nil", category, err)
		}
	}
	if err := ValidateCategory("cooking"); err == nil {
		t.Error("unknown category accepted")
	}
}

func TestValidateGigType(t *testing.T) {
	if err := ValidateGigType("find_help"); err != nil {
		t.Errorf("find_help: %v", err)
	}
	if err := ValidateGigType("offer_help"); err != nil {
		t.Errorf("offer_help: %v", err)
	}
	if err := ValidateGigType("barter"); err == nil {
		t.Error("unknown gig type accepted")
	}
}
