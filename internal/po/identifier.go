// Package po holds the internal purchase order identifier domain: the
// identifier grammar, the approved store check, and validation of model
// responses.
package po

import "regexp"

// An identifier reads "XXX-YYYYY": a 3-digit store number, a dash, and a
// 5-digit PO code. The sentinel constants.UnknownPO stands in whenever no
// identifier could be established for a document.
var reIdentifier = regexp.MustCompile(`^\d{3}-\d{5}$`)

// StorePrefix returns the store number of a well-formed identifier and
// whether the identifier matched the grammar at all.
func StorePrefix(id string) (string, bool) {
	if !reIdentifier.MatchString(id) {
		return "", false
	}
	return id[:3], true
}
