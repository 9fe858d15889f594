package indexing

import "testing"

func TestNormalise(t *testing.T) {
	tests := []struct {
		name        string
		endIndex    int
		start, end  int64
		wantS, wantE int
	}{
		{"negative wrap", 4, -3, -1, 2, 4},
		{"plain", 5, 1, 1, 1, 1},
		{"end past bound clamps", 5, 0, 100, 0, 5},
		{"start past bound clamps", 5, 100, 100, 5, 5},
		{"both negative deep", 9, -100, -1, -90, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotS, gotE := Normalise(tt.endIndex, tt.start, tt.end)
			if gotS != tt.wantS || gotE != tt.wantE {
				t.Errorf("Normalise(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.endIndex, tt.start, tt.end, gotS, gotE, tt.wantS, tt.wantE)
			}
		})
	}
}
