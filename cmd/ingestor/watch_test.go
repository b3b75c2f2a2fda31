package main

import "testing"

func TestSerialFromFileName(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"serial prefix", "2081900058_ExRaise_1700000000.txt", "2081900058"},
		{"no separator", "raise.txt", ""},
		{"empty serial still returned by convention", "_raise.txt", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serialFromFileName(tt.file); got != tt.want {
				t.Errorf("serialFromFileName(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}
