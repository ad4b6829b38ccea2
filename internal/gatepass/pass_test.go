package gatepass

import (
	"testing"

	"gatepass/internal/identity"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, st := range Statuses {
		got, err := ParseStatus(string(st))
		if err != nil {
			t.Fatalf("ParseStatus(%q) error: %v", st, err)
		}
		if got != st {
			t.Fatalf("ParseStatus(%q) = %q, want %q", st, got, st)
		}
	}
	if _, err := ParseStatus("cancelled"); err == nil {
		t.Fatal("ParseStatus(\"cancelled\") expected error, got nil")
	}
}

func TestParsePassType(t *testing.T) {
	t.Parallel()

	for _, pt := range PassTypes {
		got, err := ParsePassType(string(pt))
		if err != nil {
			t.Fatalf("ParsePassType(%q) error: %v", pt, err)
		}
		if got != pt {
			t.Fatalf("ParsePassType(%q) = %q, want %q", pt, got, pt)
		}
	}
	if _, err := ParsePassType("day_out"); err == nil {
		t.Fatal("ParsePassType(\"day_out\") expected error, got nil")
	}
}

func TestPassTypeAllowedFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		passType PassType
		res      identity.Residency
		want     bool
	}{
		{TypeDayOut, identity.ResidencyDayScholar, true},
		{TypeHomeLeave, identity.ResidencyDayScholar, true},
		{TypeEmergency, identity.ResidencyDayScholar, true},
		{TypeNightOut, identity.ResidencyDayScholar, false},
		{TypeLongLeave, identity.ResidencyDayScholar, false},
		{TypeDayOut, identity.ResidencyHosteller, true},
		{TypeNightOut, identity.ResidencyHosteller, true},
		{TypeLongLeave, identity.ResidencyHosteller, true},
		{TypeDayOut, identity.Residency(""), false},
		{TypeEmergency, identity.Residency("GUEST"), false},
	}
	for _, tt := range tests {
		if got := tt.passType.AllowedFor(tt.res); got != tt.want {
			t.Errorf("%s.AllowedFor(%s) = %v, want %v", tt.passType, tt.res, got, tt.want)
		}
	}
}
