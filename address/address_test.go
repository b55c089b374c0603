package address

import (
	"bytes"
	"errors"
	"testing"
)

const testProgramID = "8pMVJamgnZKWmYJQQ8gvPaT7UFVg5BAr3Rg5HY8epYyh"

func filled(b byte) PublicKey {
	var k PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

func sequential() PublicKey {
	var k PublicKey
	for i := range k {
		k[i] = byte(i + 1)
	}
	return k
}

func newTestDeriver(t *testing.T) *Deriver {
	t.Helper()
	d, err := NewDeriver(MustParse(testProgramID))
	if err != nil {
		t.Fatalf("NewDeriver: %v", err)
	}
	return d
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		key  PublicKey
		want string
	}{
		{Zero, "11111111111111111111111111111111"},
		{filled(1), "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"},
		{filled(4), "GgBaCs3NCBuZN12kCJgAW63ydqohFkHEdfdEXBPzLHq"},
		{filled(7), "US517G5965aydkZ46HS38QLi7UQiSojurfbQfKCELFx"},
		{sequential(), "4wBqpZM9xaSheZzJSMawUKKwhdpChKbZ5eu5ky4Vigw"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			parsed, err := Parse(tt.want)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if parsed != tt.key {
				t.Errorf("Parse(%q) = %v, want %v", tt.want, parsed, tt.key)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrInvalidKey},
		{"bad alphabet", "0OIl", ErrInvalidKey},
		{"too short", "1111", ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestTextMarshal(t *testing.T) {
	k := sequential()
	text, err := k.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var back PublicKey
	if err := back.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if back != k {
		t.Errorf("round trip = %v, want %v", back, k)
	}
}

func TestNewDeriverRequiresProgramID(t *testing.T) {
	if _, err := NewDeriver(Zero); !errors.Is(err, ErrMissingProgramID) {
		t.Errorf("NewDeriver(Zero) error = %v, want %v", err, ErrMissingProgramID)
	}
}

func TestKnownDerivations(t *testing.T) {
	d := newTestDeriver(t)

	tests := []struct {
		name     string
		owner    PublicKey
		wantAddr string
		wantBump uint8
	}{
		{"sequential owner", sequential(), "6UXvjyk41DwgV6Q1FsBet92ize89tbuGoDT6fA486Uh8", 255},
		{"owner of sevens", filled(7), "FHsarMDVZy6cGNxfBSJ4qdSQUtV9yWQTyPDZhCcAwhQX", 255},
		{"owner of ones", filled(1), "AHNsokkZDJ6zzDCRVti13FdCLwgSTpS4qVKK3Q7GereT", 249},
		{"owner of fours", filled(4), "EnsAj8eEYf6HviofzbWu93YBX6oH1YhevgcsqcDNsJFv", 254},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, bump := d.UserAddress(tt.owner)
			if addr.String() != tt.wantAddr {
				t.Errorf("UserAddress = %s, want %s", addr, tt.wantAddr)
			}
			if bump != tt.wantBump {
				t.Errorf("bump = %d, want %d", bump, tt.wantBump)
			}
		})
	}

	treasury, bump := d.TreasuryAddress()
	if treasury.String() != "BFiBLwqdL8yS4hQCdjnU4We2D6ADZRUVk3Use8iTJCu4" {
		t.Errorf("TreasuryAddress = %s", treasury)
	}
	if bump != 249 {
		t.Errorf("treasury bump = %d, want 249", bump)
	}
}

func TestDerivationIsDeterministic(t *testing.T) {
	d := newTestDeriver(t)
	owner := filled(9)

	a1, b1 := d.UserAddress(owner)
	a2, b2 := d.UserAddress(owner)
	if a1 != a2 || b1 != b2 {
		t.Errorf("derivation not deterministic: (%s,%d) vs (%s,%d)", a1, b1, a2, b2)
	}
}

func TestDerivationDependsOnProgram(t *testing.T) {
	d1 := newTestDeriver(t)
	d2, err := NewDeriver(filled(2))
	if err != nil {
		t.Fatalf("NewDeriver: %v", err)
	}

	owner := filled(3)
	a1, _ := d1.UserAddress(owner)
	a2, _ := d2.UserAddress(owner)
	if a1 == a2 {
		t.Error("different programs derived the same user address")
	}

	t1, _ := d1.TreasuryAddress()
	t2, _ := d2.TreasuryAddress()
	if t1 == t2 {
		t.Error("different programs derived the same treasury address")
	}
}

func TestDerivedAddressesAreOffCurve(t *testing.T) {
	d := newTestDeriver(t)

	for i := 0; i < 32; i++ {
		owner := filled(byte(i))
		addr, _ := d.UserAddress(owner)
		if IsOnCurve(addr) {
			t.Errorf("derived address %s for owner %d is on curve", addr, i)
		}
	}

	treasury, _ := d.TreasuryAddress()
	if IsOnCurve(treasury) {
		t.Errorf("treasury %s is on curve", treasury)
	}
}

func TestIsOnCurve(t *testing.T) {
	// Compressed ed25519 base point.
	base := PublicKey{0x58}
	for i := 1; i < Size; i++ {
		base[i] = 0x66
	}
	if !IsOnCurve(base) {
		t.Error("base point reported off curve")
	}
}

func TestVerifyProgramAddress(t *testing.T) {
	d := newTestDeriver(t)
	owner := sequential()
	addr, bump := d.UserAddress(owner)
	seeds := [][]byte{UserSeed, owner[:]}

	if err := d.VerifyProgramAddress(seeds, bump, addr); err != nil {
		t.Errorf("VerifyProgramAddress: %v", err)
	}

	other := filled(7)
	if err := d.VerifyProgramAddress([][]byte{UserSeed, other[:]}, bump, addr); err == nil {
		t.Error("expected verification to fail for a different owner")
	}
}

func TestCanonicalBumpIsHighest(t *testing.T) {
	d := newTestDeriver(t)
	owner := filled(1)
	seeds := [][]byte{UserSeed, owner[:]}

	_, bump := d.UserAddress(owner)
	for b := 255; b > int(bump); b-- {
		if _, err := d.CreateProgramAddress(seeds, uint8(b)); !errors.Is(err, ErrOnCurve) {
			t.Errorf("bump %d: error = %v, want %v", b, err, ErrOnCurve)
		}
	}
}

func TestSeedLimits(t *testing.T) {
	pid := MustParse(testProgramID)

	long := bytes.Repeat([]byte{1}, MaxSeedLength+1)
	if _, _, err := FindProgramAddress([][]byte{long}, pid); !errors.Is(err, ErrMaxSeedLength) {
		t.Errorf("long seed error = %v, want %v", err, ErrMaxSeedLength)
	}

	many := make([][]byte, MaxSeeds)
	for i := range many {
		many[i] = []byte{byte(i)}
	}
	if _, _, err := FindProgramAddress(many, pid); !errors.Is(err, ErrTooManySeeds) {
		t.Errorf("too many seeds error = %v, want %v", err, ErrTooManySeeds)
	}
}
