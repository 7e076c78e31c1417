package apdu

import (
	"bytes"
	"testing"
)

func TestParseCases(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want Command
		ok   bool
	}{
		{
			name: "case1",
			in:   []byte{0xA0, 0xA4, 0x00, 0x00},
			want: Command{Case: Case1, CLA: 0xA0, INS: 0xA4, P1: 0x00, P2: 0x00},
			ok:   true,
		},
		{
			name: "case2 Le nonzero",
			in:   []byte{0xA0, 0xB0, 0x00, 0x00, 0x05},
			want: Command{Case: Case2, CLA: 0xA0, INS: 0xB0, Le: 5, HasLe: true},
			ok:   true,
		},
		{
			name: "case2 Le zero means 256",
			in:   []byte{0xA0, 0xC0, 0x00, 0x00, 0x00},
			want: Command{Case: Case2, CLA: 0xA0, INS: 0xC0, Le: 256, HasLe: true},
			ok:   true,
		},
		{
			name: "case3",
			in:   []byte{0xA0, 0x20, 0x00, 0x01, 0x08, 1, 2, 3, 4, 5, 6, 7, 8},
			want: Command{Case: Case3, CLA: 0xA0, INS: 0x20, P1: 0x00, P2: 0x01, Lc: 8, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
			ok:   true,
		},
		{
			name: "case4",
			in:   []byte{0xA0, 0x88, 0x00, 0x00, 0x02, 0xAA, 0xBB, 0x36},
			want: Command{Case: Case4, CLA: 0xA0, INS: 0x88, Lc: 2, Data: []byte{0xAA, 0xBB}, Le: 0x36, HasLe: true},
			ok:   true,
		},
		{name: "too short", in: []byte{0xA0, 0xA4, 0x00}, ok: false},
		{name: "Lc zero with extra length", in: []byte{0xA0, 0xA4, 0x00, 0x00, 0x00, 0x01}, ok: false},
		{name: "Lc too big", in: append([]byte{0xA0, 0xA4, 0x00, 0x00, 0xFF}, make([]byte, 10)...), ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Parse(tc.in)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if got.Case != tc.want.Case || got.CLA != tc.want.CLA || got.INS != tc.want.INS ||
				got.P1 != tc.want.P1 || got.P2 != tc.want.P2 || got.Lc != tc.want.Lc ||
				got.Le != tc.want.Le || got.HasLe != tc.want.HasLe ||
				!bytes.Equal(got.Data, tc.want.Data) {
				t.Fatalf("Parse(%x) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestMarshal(t *testing.T) {
	r := Response{Data: []byte{0x00, 0x00}, SW: SWOK}
	got := Marshal(r)
	want := []byte{0x00, 0x00, 0x90, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("Marshal() = %x, want %x", got, want)
	}
}

func TestSWRemainingAttempts(t *testing.T) {
	if got := SWRemainingAttempts(2); got != 0x63C2 {
		t.Fatalf("SWRemainingAttempts(2) = %x, want 63C2", got)
	}
	if got := SWRemainingAttempts(0); got != 0x63C0 {
		t.Fatalf("SWRemainingAttempts(0) = %x, want 63C0", got)
	}
}
