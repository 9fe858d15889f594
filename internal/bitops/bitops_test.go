package bitops

import (
	"reflect"
	"testing"
)

func TestPopcount(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint64
	}{
		{"empty", nil, 0},
		{"zero byte", []byte{0x00}, 0},
		{"all ones", []byte{0xFF}, 8},
		{"foobar", []byte("foobar"), 26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Popcount(tt.data); got != tt.want {
				t.Errorf("Popcount(%v) = %d, want %d", tt.data, got, tt.want)
			}
		})
	}
}

func TestBitRange(t *testing.T) {
	tests := []struct {
		name               string
		data               []byte
		startBit, endExcl  int
		want               []byte
	}{
		{
			name:     "empty input",
			data:     nil,
			startBit: 0, endExcl: 8,
			want: []byte{},
		},
		{
			name:     "degenerate range",
			data:     []byte{0xFF},
			startBit: 4, endExcl: 4,
			want: []byte{},
		},
		{
			name:     "range past end of data clamps empty",
			data:     []byte{0xFF},
			startBit: 16, endExcl: 24,
			want: []byte{},
		},
		{
			name:     "spans three bytes, all ones input",
			data:     []byte{0xFF, 0xFF, 0xFF},
			startBit: 4, endExcl: 20,
			want: []byte{0x0F, 0xFF, 0xF0},
		},
		{
			name:     "foobar 5..30 BIT",
			data:     []byte("foobar"),
			startBit: 5, endExcl: 31,
			want: []byte{0x06, 0x6F, 0x6F, 0x62, 0x00, 0x00},
		},
		{
			name:     "single byte range ANDs both masks",
			data:     []byte("foobar"),
			startBit: 1, endExcl: 2,
			want: []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:     "whole-string range is a no-op",
			data:     []byte{0xAB, 0xCD},
			startBit: 0, endExcl: 16,
			want: []byte{0xAB, 0xCD},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BitRange(tt.data, tt.startBit, tt.endExcl)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BitRange(%v, %d, %d) = %v, want %v", tt.data, tt.startBit, tt.endExcl, got, tt.want)
			}
		})
	}
}

func TestBitRangePopcountMatchesManualCount(t *testing.T) {
	data := []byte("foobar")
	ranged := BitRange(data, 5, 31)
	if got, want := Popcount(ranged), uint64(17); got != want {
		t.Errorf("Popcount(BitRange(foobar, 5, 31)) = %d, want %d", got, want)
	}
}

func TestFirstBit(t *testing.T) {
	data := []byte{0xFF, 0xF0, 0x00}

	pos, ok := FirstBit(data, 0, 0, 24)
	if !ok || pos != 12 {
		t.Errorf("FirstBit(needle=0) = (%d, %v), want (12, true)", pos, ok)
	}

	if _, ok := FirstBit(data, 0, 1, 4); ok {
		t.Error("FirstBit(needle=0, range [1,4)) should find nothing")
	}

	if _, ok := FirstBit(data, 0, 5, 5); ok {
		t.Error("FirstBit over an empty range should report not found")
	}
}

func TestGetSetBit(t *testing.T) {
	var data []byte

	if got := GetBit(data, 7); got != 0 {
		t.Errorf("GetBit on empty data = %d, want 0", got)
	}

	grown, prev := SetBit(data, 7, 1)
	if prev != 0 {
		t.Errorf("SetBit previous = %d, want 0", prev)
	}
	if want := []byte{0x01}; !reflect.DeepEqual(grown, want) {
		t.Errorf("SetBit grew data to %v, want %v", grown, want)
	}

	if got := GetBit(grown, 7); got != 1 {
		t.Errorf("GetBit(7) after SetBit = %d, want 1", got)
	}

	cleared, prev := SetBit(grown, 7, 0)
	if prev != 1 {
		t.Errorf("SetBit previous = %d, want 1", prev)
	}
	if want := []byte{0x00}; !reflect.DeepEqual(cleared, want) {
		t.Errorf("SetBit cleared to %v, want %v", cleared, want)
	}
}
