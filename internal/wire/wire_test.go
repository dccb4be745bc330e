package wire_test

import (
	"errors"
	"testing"

	"github.com/torosent/udprtt/internal/wire"
)

func TestEncodeIsBigEndian(t *testing.T) {
	got := wire.Encode(0x01020304)
	want := [wire.PayloadSize]byte{0x01, 0x02, 0x03, 0x04}
	if got != want {
		t.Fatalf("Encode() = %v, want %v", got, want)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    uint32
		wantErr bool
	}{
		{"zero", []byte{0, 0, 0, 0}, 0, false},
		{"max", []byte{0xff, 0xff, 0xff, 0xff}, 0xffffffff, false},
		{"mixed", []byte{0x00, 0x00, 0x01, 0x00}, 256, false},
		{"short", []byte{0x01, 0x02}, 0, true},
		{"long", []byte{0, 0, 0, 1, 0}, 0, true},
		{"empty", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wire.Decode(tt.payload)
			if tt.wantErr {
				if !errors.Is(err, wire.ErrPayloadSize) {
					t.Fatalf("Decode() error = %v, want ErrPayloadSize", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDecodeReversesEncode(t *testing.T) {
	for _, id := range []uint32{0, 1, 9191, 1 << 31, 0xfffffffe} {
		payload := wire.Encode(id)
		got, err := wire.Decode(payload[:])
		if err != nil {
			t.Fatalf("Decode(%d) error = %v", id, err)
		}
		if got != id {
			t.Errorf("Decode(Encode(%d)) = %d", id, got)
		}
	}
}
