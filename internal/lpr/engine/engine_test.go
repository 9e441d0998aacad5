package engine

import "testing"

func TestSharedReader(t *testing.T) {
	tests := []struct {
		name    string
		wantNil bool
		wantErr bool
	}{
		{"rekognition", false, false},
		{" Tesseract ", false, false},
		{"none", true, false},
		{"", true, false},
		{"paddleocr", true, true},
	}
	for _, tt := range tests {
		r, err := SharedReader(tt.name, "ap-southeast-1", []string{"eng"})
		if (err != nil) != tt.wantErr {
			t.Fatalf("%q: err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if (r == nil) != tt.wantNil {
			t.Fatalf("%q: reader nil = %v, want %v", tt.name, r == nil, tt.wantNil)
		}
	}
}
