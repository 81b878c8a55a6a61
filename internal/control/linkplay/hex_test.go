package linkplay

import "testing"

func TestDecodeHexText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "hex-encoded artist decodes",
			input: "50696e6b20466c6f7964",
			want:  "Pink Floyd",
		},
		{
			name:  "uppercase hex decodes",
			input: "50696E6B20466C6F7964",
			want:  "Pink Floyd",
		},
		{
			name:  "multibyte utf-8 survives",
			input: "42656e2045726ec3b673", // "Ben Ernös"
			want:  "Ben Ernös",
		},
		{
			name:  "plain text passes through",
			input: "Pink Floyd",
			want:  "Pink Floyd",
		},
		{
			name:  "odd length passes through",
			input: "50696e6b2",
			want:  "50696e6b2",
		},
		{
			name:  "non-hex characters pass through",
			input: "deadbeefgg",
			want:  "deadbeefgg",
		},
		{
			name:  "empty stays empty",
			input: "",
			want:  "",
		},
		{
			name:  "invalid utf-8 after decode passes through",
			input: "fffe",
			want:  "fffe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeHexText(tt.input); got != tt.want {
				t.Errorf("DecodeHexText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// Hex-looking plain text is the known ambiguity: a title made entirely of
// hex digits decodes whenever the result is valid UTF-8. These short words
// decode to invalid UTF-8 bytes, so they survive untouched.
func TestDecodeHexText_AmbiguousInput(t *testing.T) {
	for _, word := range []string{"dead", "abba"} {
		if got := DecodeHexText(word); got != word {
			t.Errorf("DecodeHexText(%q) = %q, want pass-through", word, got)
		}
	}
}
