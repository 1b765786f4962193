package chain

import (
	"encoding/hex"
	"strings"
	"unicode"
)

// HandlePolicyID is the issuing policy of the naming-handle asset. Any
// asset whose unit starts with this prefix is a handle; the asset name
// is the hex-encoded handle itself.
const HandlePolicyID = "f0ff48bbb7bbe9d59a40f1ce90e9e9d0ff5002ec48f232b49ca0fb9a"

// HandleFromAssets scans an asset list for a naming handle and returns it
// with the conventional $ prefix, or "" if the address holds none.
func HandleFromAssets(assets []Asset) string {
	for _, a := range assets {
		if !strings.HasPrefix(a.Unit, HandlePolicyID) {
			continue
		}
		nameHex := a.Unit[len(HandlePolicyID):]
		name, err := hex.DecodeString(nameHex)
		if err != nil {
			continue
		}
		decoded := strings.TrimSpace(string(name))
		if decoded == "" || !printable(decoded) {
			continue
		}
		return "$" + decoded
	}
	return ""
}

func printable(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
