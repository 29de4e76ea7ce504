package magic

import "testing"

func TestParseMIME(t *testing.T) {
	tests := []struct {
		input string
		want  MIMEResult
	}{
		{"image/png", MIMEResult{Type: "image/png"}},
		{"image/png; charset=binary", MIMEResult{Type: "image/png", Charset: "binary"}},
		{"text/plain; charset=us-ascii", MIMEResult{Type: "text/plain", Charset: "us-ascii"}},
		{"binary", MIMEResult{Charset: "binary"}},
		{"", MIMEResult{}},
		{"  text/html  ", MIMEResult{Type: "text/html"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseMIME(tt.input); got != tt.want {
				t.Errorf("ParseMIME(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMIMEContinue(t *testing.T) {
	// FlagContinue joins several answers with "\n- "
	got := ParseMIME("application/zip; charset=binary\n- application/octet-stream")
	if got.Type != "application/zip" || got.Charset != "binary" {
		t.Errorf("ParseMIME() = %+v", got)
	}
}

func TestMIMEResultString(t *testing.T) {
	for _, s := range []string{"image/png", "image/png; charset=binary", "binary"} {
		if got := ParseMIME(s).String(); got != s {
			t.Errorf("String() = %q, want %q", got, s)
		}
	}
}

func TestIsBinaryMIME(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"text/plain", false},
		{"text/x-script.python", false},
		{"application/json", false},
		{"image/png", true},
		{"application/octet-stream", true},
	}

	for _, tt := range tests {
		if got := IsBinaryMIME(tt.mime); got != tt.want {
			t.Errorf("IsBinaryMIME(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}
}

func TestIsExecutableMIME(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"application/x-pie-executable", true},
		{"application/x-executable; charset=binary", true},
		{"application/x-dosexec", true},
		{"application/x-mach-binary", true},
		{"application/zip", false},
		{"text/plain", false},
	}

	for _, tt := range tests {
		if got := IsExecutableMIME(tt.mime); got != tt.want {
			t.Errorf("IsExecutableMIME(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png; charset=binary", "image"},
		{"video/mp4", "video"},
		{"audio/mpeg", "audio"},
		{"text/plain", "text"},
		{"font/woff2", "font"},
		{"application/x-sharedlib", "executable"},
		{"application/gzip", "archive"},
		{"application/x-xz", "archive"},
		{"application/pdf", "document"},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "document"},
		{"application/octet-stream", "other"},
	}

	for _, tt := range tests {
		if got := Category(tt.mime); got != tt.want {
			t.Errorf("Category(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestExtensionForMIME(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png; charset=binary", ".png"},
		{"text/plain", ".txt"},
		{"application/pdf", ".pdf"},
		{"application/x-definitely-unknown", ".bin"},
	}

	for _, tt := range tests {
		if got := ExtensionForMIME(tt.mime); got != tt.want {
			t.Errorf("ExtensionForMIME(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
