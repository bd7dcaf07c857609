package library

import "github.com/microcosm-cc/bluemonday"

// newSanitizer returns the policy applied to annotated writeup HTML before it
// is served. Heading ids and code-block/highlighting classes must survive.
func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()
	p.AllowAttrs("tabindex").OnElements("pre")
	return p
}
