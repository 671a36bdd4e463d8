package renderer

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		version      string
		major, minor int
		wantErr      bool
	}{
		{"4.6.0 NVIDIA 535.54.03", 4, 6, false},
		{"4.3 (Core Profile) Mesa 23.0.4", 4, 3, false},
		{"4.1 Metal - 83.1", 4, 1, false},
		{"", 0, 0, true},
		{"four.one", 0, 0, true},
		{"4", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			major, minor, err := ParseVersion(tt.version)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersion(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
			}
			if major != tt.major || minor != tt.minor {
				t.Errorf("ParseVersion(%q) = %d.%d, want %d.%d", tt.version, major, minor, tt.major, tt.minor)
			}
		})
	}
}
