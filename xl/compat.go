package xl

import (
	"fmt"
	"strings"
)

// Compatibility selects between spreadsheet-exact results and the
// conventions of host numeric libraries for the few formulas where the two
// legitimately differ (NPV, IRR)
type Compatibility uint8

const (
	Spreadsheet Compatibility = iota
	HostNative
)

func (c Compatibility) String() string {
	switch c {
	case Spreadsheet:
		return "Spreadsheet"
	case HostNative:
		return "HostNative"
	}
	return fmt.Sprintf("Compatibility(%d)", uint8(c))
}

// ParseCompatibility accepts "Spreadsheet" or "HostNative" in any case.
// "EXCEL" and "PYTHON" are accepted as older spellings.
func ParseCompatibility(s string) (Compatibility, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SPREADSHEET", "EXCEL":
		return Spreadsheet, nil
	case "HOSTNATIVE", "HOST_NATIVE", "PYTHON":
		return HostNative, nil
	}
	return Spreadsheet, NewApplicationError(InvalidArgument, nil, "unknown compatibility mode %q", s)
}
