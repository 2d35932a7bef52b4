//go:build !ORT

package provider

import "github.com/knights-analytics/hugot"

// newHugotSession uses hugot's pure-Go backend when the ORT build tag
// is off. Slower than ONNX Runtime but needs no shared libraries.
func newHugotSession() (*hugot.Session, error) {
	return hugot.NewGoSession()
}
