package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-01-32", "2023/01/01", "01-01-2023", ""}
	for _, s := range valid {
		_, ok := IsValidDate(s)
		if !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		_, ok := IsValidDate(s)
		if ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"a", "b", "c"}
	if !IsInSlice("a", slice) {
		t.Errorf("IsInSlice('a') = false, want true")
	}
	if IsInSlice("d", slice) {
		t.Errorf("IsInSlice('d') = true, want false")
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "user_id", Message: "invalid"},
		{Field: "device_id", Message: "required"},
	}
	got := errs.Error()
	want := "user_id: invalid; device_id: required"
	if got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "user_id", Message: "invalid"},
		{Field: "device_id", Message: "required"},
	}
	got := errs.ToMap()
	want := map[string]string{"user_id": "invalid", "device_id": "required"}
	if len(got) != len(want) {
		t.Errorf("ValidationErrors.ToMap() length = %d, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ValidationErrors.ToMap()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"emp-001", "kiosk_lobby.1", "42"}
	invalid := []string{"", "has space", "slash/id", "semi;colon"}
	for _, id := range valid {
		if !IsValidIdentifier(id) {
			t.Errorf("IsValidIdentifier(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if IsValidIdentifier(id) {
			t.Errorf("IsValidIdentifier(%q) = true, want false", id)
		}
	}
}

func TestIsValidWallClock(t *testing.T) {
	if _, ok := IsValidWallClock("2024-03-01 09:20:00"); !ok {
		t.Errorf("IsValidWallClock() = false, want true")
	}
	if _, ok := IsValidWallClock("2024-03-01T09:20:00Z"); ok {
		t.Errorf("IsValidWallClock() = true for RFC3339, want false")
	}
}
