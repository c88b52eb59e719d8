package backend

import (
	"fmt"
	"time"
)

const wireDOBLayout = "02/01/2006"

// WireDate converts an ISO yyyy-mm-dd date into the dd/mm/yyyy form the
// backend expects on person records. This conversion is a mandatory boundary
// responsibility; person dates never cross this package in ISO form.
func WireDate(iso string) (string, error) {
	if iso == "" {
		return "", nil
	}
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return "", fmt.Errorf("backend: invalid date %q: %w", iso, err)
	}
	return t.Format(wireDOBLayout), nil
}

// ISODate converts a dd/mm/yyyy person date from the wire into ISO
// yyyy-mm-dd.
func ISODate(wire string) (string, error) {
	if wire == "" {
		return "", nil
	}
	t, err := time.Parse(wireDOBLayout, wire)
	if err != nil {
		return "", fmt.Errorf("backend: invalid wire date %q: %w", wire, err)
	}
	return t.Format(time.DateOnly), nil
}
