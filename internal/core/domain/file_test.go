package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\site photo.jpg`, "site photo.jpg"},
		{"a:b*c?.txt", "a_b_c_.txt"},
		{"tab\there.txt", "tabhere.txt"},
		{"  spaced.txt  ", "spaced.txt"},
		{"", "file"},
		{"..", "file"},
		{"dir/", "dir"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.in))
		})
	}
}

func TestSanitizeFileName_Truncates(t *testing.T) {
	long := strings.Repeat("é", 300)
	assert.Len(t, []rune(SanitizeFileName(long)), 200)
}

func TestSanitizeFileName_TruncatesAtSpace(t *testing.T) {
	name := strings.Repeat("a", 199) + " tail.pdf"
	got := SanitizeFileName(name)
	assert.Equal(t, strings.Repeat("a", 199), got)
}
