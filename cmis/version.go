package cmis

// Version is a CMIS protocol version as advertised by the repository in
// cmisVersionSupported.
type Version string

const (
	Version10 Version = "1.0"
	Version11 Version = "1.1"
)

// ParseVersion normalizes a cmisVersionSupported wire value. Servers report
// plain "1.0"/"1.1"; anything newer is treated as 1.1 so additions degrade
// instead of failing.
func ParseVersion(s string) Version {
	if s == string(Version10) {
		return Version10
	}
	return Version11
}

// AtLeast reports whether v is o or newer.
func (v Version) AtLeast(o Version) bool {
	return v >= o
}

// SupportsItems reports whether the item base type, createItem action and
// the order-by capability exist in this version. Encoders targeting 1.0 must
// drop these rather than emit content invalid for that version.
func (v Version) SupportsItems() bool {
	return v.AtLeast(Version11)
}
