package constants

// UnknownPO is the sentinel recorded when no authorized store number could
// be confirmed for a document.
const UnknownPO = "UNKNOWN"

// ApprovedStores holds the store numbers the warehouse accepts deliveries
// for. Everything else is rejected and collapses to UnknownPO.
var ApprovedStores = []string{"829", "899", "436", "499", "407", "115", "712"}

// ApprovedStoreSet is ApprovedStores as a lookup set.
var ApprovedStoreSet = map[string]struct{}{}

func init() {
	for _, s := range ApprovedStores {
		ApprovedStoreSet[s] = struct{}{}
	}
}

// IsApprovedStore reports whether code is in the approved store list.
func IsApprovedStore(code string) bool {
	_, ok := ApprovedStoreSet[code]
	return ok
}
