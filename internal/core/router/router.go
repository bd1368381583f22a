// Package router classifies raw content into format identifiers.
// Classification is pure with respect to its inputs: safety rules
// first, then the extension table, then content sniffing, with the
// opaque bundle as the catch-all. Extension matches are authoritative;
// content sniffing is fallback only.
package router

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/formats"
)

// extensionTable maps known file extensions to format ids.
var extensionTable = map[string]domain.FormatID{
	".ovpn":    domain.FormatOVPN,
	".npv4":    domain.FormatNPV4,
	".conf":    domain.FormatConfLines,
	".ehi":     domain.FormatEHI,
	".hc":      domain.FormatHC,
	".hat":     domain.FormatHAT,
	".sip":     domain.FormatSIP,
	".nm":      domain.FormatNM,
	".dark":    domain.FormatDark,
	".npvtsub": domain.FormatSubscription,
}

// blockedExtensions are executable package formats that must never be
// ingested, whatever the content looks like.
var blockedExtensions = map[string]bool{
	".apk": true,
	".exe": true,
	".msi": true,
	".bat": true,
	".cmd": true,
	".scr": true,
	".dll": true,
}

// Executable signatures checked against the head of the content.
var executableMagics = [][]byte{
	{'M', 'Z'},                   // PE
	{0x7f, 'E', 'L', 'F'},        // ELF
	{0xfe, 0xed, 0xfa, 0xce},     // Mach-O 32
	{0xfe, 0xed, 0xfa, 0xcf},     // Mach-O 64
	{0xcf, 0xfa, 0xed, 0xfe},     // Mach-O 64 LE
	{'d', 'e', 'x', '\n', '0'},   // Dalvik executable
	{'!', '<', 'a', 'r', 'c', 'h', '>'}, // static archive
}

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// CheckSafety rejects known-dangerous payloads. It runs at the ingest
// boundary before hashing, so unsafe bytes are never persisted, and
// runs again inside Classify.
func CheckSafety(filename string, content []byte) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if blockedExtensions[ext] {
		return fmt.Errorf("%w: blocked extension %q", domain.ErrUnsafeContent, ext)
	}
	for _, magic := range executableMagics {
		if bytes.HasPrefix(content, magic) {
			return fmt.Errorf("%w: executable signature", domain.ErrUnsafeContent)
		}
	}
	return nil
}

// Classify resolves the format id for a file. The filename is a hint
// only; content identity is established elsewhere by hash. When the
// resolved format is excluded by allowed, Classify returns
// domain.ErrFormatNotAllowed rather than silently dropping the file.
func Classify(filename string, content []byte, allowed domain.SourceSelector) (domain.FormatID, error) {
	if err := CheckSafety(filename, content); err != nil {
		return "", err
	}

	id := resolve(filename, content)

	if !allowed.Allows(id) {
		return "", fmt.Errorf("%w: %s", domain.ErrFormatNotAllowed, id)
	}
	return id, nil
}

// resolve runs extension then content classification.
func resolve(filename string, content []byte) domain.FormatID {
	ext := strings.ToLower(filepath.Ext(filename))
	if id, ok := extensionTable[ext]; ok {
		return id
	}

	// Archive signatures win over text sniffing: a zip header can
	// carry scheme-like bytes in its stored entry names.
	if IsArchive(content) {
		return domain.FormatOpaqueBundle
	}

	// Text sniffing: the first non-empty line carrying a known proxy
	// URI scheme selects the line-based proxy format. A bare base64
	// blob that unwraps to scheme text counts too.
	preview := content
	if len(preview) > 2048 {
		preview = preview[:2048]
	}
	if formats.SniffProxyText(preview) {
		return domain.FormatProxyText
	}

	// Anything the sniffers could not place lands in the catch-all so
	// every file produces some record.
	return domain.FormatOpaqueBundle
}

// IsArchive reports whether content starts with a zip container
// signature.
func IsArchive(content []byte) bool {
	return bytes.HasPrefix(content, zipMagic)
}
