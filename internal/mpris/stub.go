//go:build !linux

package mpris

// NewSurface returns nil on non-Linux platforms. A Bridge with no
// surface attached publishes nothing.
func NewSurface(_ string, _ Handler) (Surface, error) {
	return nil, nil
}
