package record

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/xraph/promptledger/address"
)

func fill(b byte) [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func sample() UserLedger {
	return UserLedger{
		Authority:        address.PublicKey(fill(0xAA)),
		TotalQueries:     3,
		TotalFeesPaid:    3_000_000,
		LastPromptHash:   Hash(fill(0x11)),
		LastResponseHash: Hash(fill(0x22)),
		LastLogSlot:      987654321,
		Bump:             254,
	}
}

func TestDiscriminators(t *testing.T) {
	tests := []struct {
		name string
		got  [DiscriminatorSize]byte
		want [DiscriminatorSize]byte
	}{
		{"account:UserAccount", UserDiscriminator, [8]byte{211, 33, 136, 16, 186, 110, 242, 127}},
		{"global:initialize_user", Sighash("global", "initialize_user"), [8]byte{111, 17, 185, 250, 60, 122, 38, 254}},
		{"global:log_interaction", Sighash("global", "log_interaction"), [8]byte{84, 149, 144, 32, 114, 222, 76, 188}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestSizes(t *testing.T) {
	if BodySize != 121 {
		t.Errorf("BodySize = %d, want 121", BodySize)
	}
	if Size != 129 {
		t.Errorf("Size = %d, want 129", Size)
	}
}

func TestMarshalLayout(t *testing.T) {
	r := sample()
	data := r.Marshal()

	if len(data) != Size {
		t.Fatalf("len = %d, want %d", len(data), Size)
	}
	if !bytes.Equal(data[0:8], UserDiscriminator[:]) {
		t.Errorf("discriminator = %x", data[0:8])
	}
	if !bytes.Equal(data[8:40], r.Authority[:]) {
		t.Errorf("authority = %x", data[8:40])
	}
	if got := binary.LittleEndian.Uint64(data[40:48]); got != 3 {
		t.Errorf("total_queries = %d", got)
	}
	if got := binary.LittleEndian.Uint64(data[48:56]); got != 3_000_000 {
		t.Errorf("total_fees_paid = %d", got)
	}
	if !bytes.Equal(data[56:88], r.LastPromptHash[:]) {
		t.Errorf("last_prompt_hash = %x", data[56:88])
	}
	if !bytes.Equal(data[88:120], r.LastResponseHash[:]) {
		t.Errorf("last_response_hash = %x", data[88:120])
	}
	if got := binary.LittleEndian.Uint64(data[120:128]); got != 987654321 {
		t.Errorf("last_log_slot = %d", got)
	}
	if data[128] != 254 {
		t.Errorf("bump = %d", data[128])
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		r    UserLedger
	}{
		{"fresh", New(address.PublicKey(fill(1)), 255)},
		{"populated", sample()},
		{"saturated", UserLedger{TotalQueries: math.MaxUint64, TotalFeesPaid: math.MaxUint64, LastLogSlot: math.MaxUint64}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unmarshal(tt.r.Marshal())
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got != tt.r {
				t.Errorf("got %+v, want %+v", got, tt.r)
			}
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	valid := sample().Marshal()
	wrongTag := append([]byte(nil), valid...)
	wrongTag[0] ^= 0xFF

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrInvalidLength},
		{"short", valid[:Size-1], ErrInvalidLength},
		{"long", append(append([]byte(nil), valid...), 0), ErrInvalidLength},
		{"wrong discriminator", wrongTag, ErrDiscriminatorMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIsInitialized(t *testing.T) {
	if IsInitialized(nil) {
		t.Error("nil data reported initialized")
	}
	if IsInitialized(make([]byte, Size)) {
		t.Error("zeroed data reported initialized")
	}
	if !IsInitialized(sample().Marshal()) {
		t.Error("marshaled record reported uninitialized")
	}
}

type slot struct {
	owner address.PublicKey
	data  []byte
}

func (s *slot) Owner() address.PublicKey { return s.owner }
func (s *slot) Data() []byte             { return s.data }
func (s *slot) SetData(data []byte) error {
	s.data = data
	return nil
}

func TestLoadStore(t *testing.T) {
	program := address.PublicKey(fill(9))
	other := address.PublicKey(fill(8))

	s := &slot{owner: program}
	if _, err := Load(s, program); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("empty slot error = %v, want %v", err, ErrNotInitialized)
	}

	r := sample()
	if err := Store(s, r); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := Load(s, program)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != r {
		t.Errorf("Load = %+v, want %+v", got, r)
	}

	if _, err := Load(s, other); !errors.Is(err, ErrOwnerMismatch) {
		t.Errorf("foreign owner error = %v, want %v", err, ErrOwnerMismatch)
	}
}

func TestHash(t *testing.T) {
	h := HashText("hello")
	const want = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if h.String() != want {
		t.Errorf("HashText = %s, want %s", h, want)
	}

	parsed, err := ParseHash("0x" + want)
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if parsed != h {
		t.Error("ParseHash with 0x prefix mismatch")
	}

	for _, bad := range []string{"", "abc", want[:62] + "zz"} {
		if _, err := ParseHash(bad); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("ParseHash(%q) error = %v, want %v", bad, err, ErrInvalidHash)
		}
	}
}

func TestJSON(t *testing.T) {
	r := sample()
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back UserLedger
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != r {
		t.Errorf("JSON round trip = %+v, want %+v", back, r)
	}
}
