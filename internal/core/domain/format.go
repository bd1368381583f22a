package domain

// FormatID identifies one of the closed set of content formats the
// pipeline understands. New formats are added here and in the router's
// classification table, never at call sites.
type FormatID string

const (
	// FormatConfLines is plain line-oriented config text (.conf).
	FormatConfLines FormatID = "conf_lines"

	// FormatProxyText is proxy URI text (vmess://, vless://, ...),
	// either plain lines or a base64-wrapped blob.
	FormatProxyText FormatID = "npvt"

	// FormatSubscription is a subscription file of proxy URIs (.npvtsub).
	FormatSubscription FormatID = "npvtsub"

	// Opaque container formats. These are never decomposed; the whole
	// file is carried as a single descriptor and bundled at build time.

	FormatOVPN         FormatID = "ovpn"
	FormatNPV4         FormatID = "npv4"
	FormatEHI          FormatID = "ehi"
	FormatHC           FormatID = "hc"
	FormatHAT          FormatID = "hat"
	FormatSIP          FormatID = "sip"
	FormatNM           FormatID = "nm"
	FormatDark         FormatID = "dark"
	FormatOpaqueBundle FormatID = "opaque_bundle"
)

// AllFormats lists every known format identifier.
func AllFormats() []FormatID {
	return []FormatID{
		FormatConfLines, FormatProxyText, FormatSubscription,
		FormatOVPN, FormatNPV4, FormatEHI, FormatHC, FormatHAT,
		FormatSIP, FormatNM, FormatDark, FormatOpaqueBundle,
	}
}

// IsKnown reports whether f is one of the registered format identifiers.
func (f FormatID) IsKnown() bool {
	for _, known := range AllFormats() {
		if f == known {
			return true
		}
	}
	return false
}

// IsLineBased reports whether the format is decomposed into per-line
// records. All other formats produce a single opaque descriptor.
func (f FormatID) IsLineBased() bool {
	switch f {
	case FormatConfLines, FormatProxyText, FormatSubscription:
		return true
	}
	return false
}

// String returns the format identifier.
func (f FormatID) String() string {
	return string(f)
}
