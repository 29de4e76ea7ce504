package magic

import (
	"fmt"
	"strings"
)

// Flags is a bitmask that controls how a Cookie classifies content.
// Values are combined with Union or the | operator; the zero value is FlagNone.
type Flags int

// Primitive flags. The values match libmagic's MAGIC_* constants.
const (
	// FlagNone sets no options
	FlagNone Flags = 0x000000

	// FlagDebug turns on debugging output
	FlagDebug Flags = 0x000001

	// FlagSymlink follows symlinks
	FlagSymlink Flags = 0x000002

	// FlagCompress looks inside compressed files
	FlagCompress Flags = 0x000004

	// FlagDevices looks at the contents of block and character devices
	FlagDevices Flags = 0x000008

	// FlagMimeType returns the MIME type instead of a description
	FlagMimeType Flags = 0x000010

	// FlagContinue returns all matches, not just the first
	FlagContinue Flags = 0x000020

	// FlagCheck prints warnings to stderr
	FlagCheck Flags = 0x000040

	// FlagPreserveAtime restores the access time of inspected files
	FlagPreserveAtime Flags = 0x000080

	// FlagRaw does not translate unprintable characters
	FlagRaw Flags = 0x000100

	// FlagError treats ENOENT and friends as real errors
	FlagError Flags = 0x000200

	// FlagMimeEncoding returns the MIME encoding
	FlagMimeEncoding Flags = 0x000400

	// FlagApple returns the Apple creator and type
	FlagApple Flags = 0x000800

	FlagNoCheckCompress Flags = 0x001000 // don't check for compressed files
	FlagNoCheckTar      Flags = 0x002000 // don't check for tar files
	FlagNoCheckSoft     Flags = 0x004000 // don't consult magic entries
	FlagNoCheckAppType  Flags = 0x008000 // don't check application type
	FlagNoCheckELF      Flags = 0x010000 // don't check for ELF details
	FlagNoCheckText     Flags = 0x020000 // don't check for text files
	FlagNoCheckCDF      Flags = 0x040000 // don't check for CDF files
	FlagNoCheckTokens   Flags = 0x100000 // don't check tokens
	FlagNoCheckEncoding Flags = 0x200000 // don't check text encodings
)

// Derived flags. These are unions of primitives, never independent bits.
var (
	// FlagMime returns both the MIME type and the MIME encoding
	FlagMime = FlagMimeType.Union(FlagMimeEncoding)

	// FlagNoCheckBuiltin disables every built-in test so only the magic
	// database is consulted. FlagNoCheckSoft is not part of it.
	FlagNoCheckBuiltin = FlagNoCheckCompress.Union(
		FlagNoCheckTar,
		FlagNoCheckAppType,
		FlagNoCheckELF,
		FlagNoCheckText,
		FlagNoCheckCDF,
		FlagNoCheckTokens,
		FlagNoCheckEncoding,
	)
)

// flagNames lists every named flag in String order. Aliases come first so
// that String prefers them over their constituents.
var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagNoCheckBuiltin, "no_check_builtin"},
	{FlagMime, "mime"},
	{FlagDebug, "debug"},
	{FlagSymlink, "symlink"},
	{FlagCompress, "compress"},
	{FlagDevices, "devices"},
	{FlagMimeType, "mime_type"},
	{FlagContinue, "continue"},
	{FlagCheck, "check"},
	{FlagPreserveAtime, "preserve_atime"},
	{FlagRaw, "raw"},
	{FlagError, "error"},
	{FlagMimeEncoding, "mime_encoding"},
	{FlagApple, "apple"},
	{FlagNoCheckCompress, "no_check_compress"},
	{FlagNoCheckTar, "no_check_tar"},
	{FlagNoCheckSoft, "no_check_soft"},
	{FlagNoCheckAppType, "no_check_apptype"},
	{FlagNoCheckELF, "no_check_elf"},
	{FlagNoCheckText, "no_check_text"},
	{FlagNoCheckCDF, "no_check_cdf"},
	{FlagNoCheckTokens, "no_check_tokens"},
	{FlagNoCheckEncoding, "no_check_encoding"},
}

// Union returns the bitwise OR of f and others. f itself is not modified.
func (f Flags) Union(others ...Flags) Flags {
	for _, o := range others {
		f |= o
	}
	return f
}

// Has reports whether every bit of other is set in f
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

// String returns the flag names joined by "|", e.g. "symlink|mime".
func (f Flags) String() string {
	if f == FlagNone {
		return "none"
	}

	var parts []string
	rest := f
	for _, n := range flagNames {
		if rest&n.flag == n.flag && rest&n.flag != 0 {
			parts = append(parts, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%06x", int(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseFlags parses a list of flag names separated by "|" or ",".
// Names are case-insensitive and may omit underscores ("mimetype").
// An empty string yields FlagNone.
func ParseFlags(s string) (Flags, error) {
	flags := FlagNone
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ','
	})

	for _, field := range fields {
		name := normalizeFlagName(field)
		if name == "" || name == "none" {
			continue
		}
		f, ok := lookupFlag(name)
		if !ok {
			return FlagNone, fmt.Errorf("%w: %q", ErrInvalidFlag, strings.TrimSpace(field))
		}
		flags |= f
	}

	return flags, nil
}

func normalizeFlagName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "magic_")
	return strings.NewReplacer("_", "", "-", "").Replace(s)
}

func lookupFlag(normalized string) (Flags, bool) {
	for _, n := range flagNames {
		if normalizeFlagName(n.name) == normalized {
			return n.flag, true
		}
	}
	return FlagNone, false
}
