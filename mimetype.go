package magic

import (
	"mime"
	"strings"
)

// Common MIME types
const (
	MIMETypeTextPlain       = "text/plain"
	MIMETypeTextHTML        = "text/html"
	MIMETypeApplicationJSON = "application/json"
	MIMETypeApplicationXML  = "application/xml"
	MIMETypeImagePNG        = "image/png"
	MIMETypeImageJPEG       = "image/jpeg"
	MIMETypeApplicationPDF  = "application/pdf"
	MIMETypeApplicationZip  = "application/zip"
	MIMETypeOctetStream     = "application/octet-stream"
)

// MIMEResult is a parsed FlagMime answer such as "image/png; charset=binary"
type MIMEResult struct {
	Type    string
	Charset string
}

// ParseMIME splits a MIME answer into its type and charset. Answers produced
// with only FlagMimeType have an empty Charset; answers produced with only
// FlagMimeEncoding come back as a bare charset and land in Charset.
func ParseMIME(s string) MIMEResult {
	s = strings.TrimSpace(s)
	if s == "" {
		return MIMEResult{}
	}

	if !strings.Contains(s, "/") && !strings.Contains(s, "=") {
		return MIMEResult{Charset: s}
	}

	mediaType, params, err := mime.ParseMediaType(s)
	if err != nil {
		// libmagic may emit several answers with FlagContinue; keep the first
		typ, rest, _ := strings.Cut(s, ";")
		res := MIMEResult{Type: strings.TrimSpace(typ)}
		if _, cs, ok := strings.Cut(rest, "charset="); ok {
			if fields := strings.Fields(cs); len(fields) > 0 {
				res.Charset = fields[0]
			}
		}
		return res
	}

	return MIMEResult{Type: mediaType, Charset: params["charset"]}
}

// String reassembles the answer in libmagic's format
func (m MIMEResult) String() string {
	switch {
	case m.Type == "":
		return m.Charset
	case m.Charset == "":
		return m.Type
	default:
		return m.Type + "; charset=" + m.Charset
	}
}

// IsBinaryMIME returns true if the MIME type is typically binary (not text)
func IsBinaryMIME(mimeType string) bool {
	textPrefixes := []string{
		"text/",
		"application/json",
		"application/xml",
		"application/javascript",
		"application/x-javascript",
	}

	for _, prefix := range textPrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return false
		}
	}

	return true
}

// IsExecutableMIME returns true if the MIME type indicates an executable.
// The list covers the names libmagic uses for ELF, PE and Mach-O binaries.
func IsExecutableMIME(mimeType string) bool {
	switch ParseMIME(mimeType).Type {
	case "application/x-executable",
		"application/x-pie-executable",
		"application/x-sharedlib",
		"application/x-mach-binary",
		"application/x-dosexec",
		"application/x-msdownload",
		"application/vnd.microsoft.portable-executable":
		return true
	}
	return false
}

// Category returns a coarse category for a MIME type
func Category(mimeType string) string {
	typ := ParseMIME(mimeType).Type
	switch {
	case strings.HasPrefix(typ, "image/"):
		return "image"
	case strings.HasPrefix(typ, "video/"):
		return "video"
	case strings.HasPrefix(typ, "audio/"):
		return "audio"
	case strings.HasPrefix(typ, "text/"):
		return "text"
	case strings.HasPrefix(typ, "font/"):
		return "font"
	case IsExecutableMIME(typ):
		return "executable"
	case strings.Contains(typ, "zip") || strings.Contains(typ, "tar") ||
		strings.Contains(typ, "rar") || strings.Contains(typ, "7z") ||
		strings.Contains(typ, "gzip") || strings.Contains(typ, "bzip") ||
		strings.Contains(typ, "xz"):
		return "archive"
	case strings.Contains(typ, "document") || typ == MIMETypeApplicationPDF ||
		strings.Contains(typ, "msword") || strings.Contains(typ, "excel") ||
		strings.Contains(typ, "powerpoint"):
		return "document"
	default:
		return "other"
	}
}

// ExtensionForMIME returns a suitable file extension for a MIME answer
func ExtensionForMIME(mimeType string) string {
	typ := ParseMIME(mimeType).Type

	switch typ {
	case MIMETypeTextPlain:
		return ".txt"
	case MIMETypeTextHTML:
		return ".html"
	case MIMETypeApplicationJSON:
		return ".json"
	case MIMETypeApplicationXML:
		return ".xml"
	case MIMETypeImagePNG:
		return ".png"
	case MIMETypeImageJPEG:
		return ".jpg"
	case MIMETypeApplicationPDF:
		return ".pdf"
	case MIMETypeApplicationZip:
		return ".zip"
	}

	exts, err := mime.ExtensionsByType(typ)
	if err == nil && len(exts) > 0 {
		return exts[0]
	}

	return ".bin"
}
