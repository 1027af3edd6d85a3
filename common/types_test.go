package common

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestHashUint64RoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 255, 1 << 40, ^uint64(0)} {
		if got := Uint64ToHash(n).Uint64(); got != n {
			t.Fatalf("uint64 round trip: have %d want %d", got, n)
		}
		if got := Uint64ToHash(n).Big(); got.Cmp(new(big.Int).SetUint64(n)) != 0 {
			t.Fatalf("big mismatch for %d: %v", n, got)
		}
	}
}

func TestAddressJSON(t *testing.T) {
	a := HexToAddress("0x00000000000000000000000000000000000000aa")
	enc, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	var dec Address
	if err := json.Unmarshal(enc, &dec); err != nil {
		t.Fatal(err)
	}
	if dec != a {
		t.Fatalf("address mismatch: have %v want %v", dec, a)
	}
	if err := json.Unmarshal([]byte(`"0x1234"`), &dec); err == nil {
		t.Fatal("expected short address to be rejected")
	}
}

func TestIsHexAddress(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"0X5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beae", false},
		{"0xxaaeb6053f3e94c9b9a09f33669435e7ef1beaed", false},
	}
	for _, tt := range tests {
		if got := IsHexAddress(tt.in); got != tt.ok {
			t.Errorf("IsHexAddress(%s) == %v; want %v", tt.in, got, tt.ok)
		}
	}
}
