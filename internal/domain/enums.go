package domain

import (
	"fmt"
	"strings"
)

// Status is the sales pipeline stage of a lead. The zero value is the default.
type Status int

const (
	StatusToContact Status = iota
	StatusContacted
	StatusVisited
	StatusDemoGiven
	StatusClient
)

var statusLabels = []string{"Por Contactar", "Contactado", "Visitado", "Demo", "Cliente"}

// System is the point-of-sale system the venue already runs.
type System int

const (
	SystemNone System = iota
	SystemA
	SystemB
	SystemC
	SystemOther
)

var systemLabels = []string{"Sin Dato", "Fudo", "Bistrosoft", "BCN", "Otro"}

// Vendor is the salesperson the lead is assigned to.
type Vendor int

const (
	VendorUnassigned Vendor = iota
	VendorA
	VendorB
)

var vendorLabels = []string{"Sin Asignar", "Seba", "Facu"}

func StatusLabels() []string { return append([]string(nil), statusLabels...) }
func SystemLabels() []string { return append([]string(nil), systemLabels...) }
func VendorLabels() []string { return append([]string(nil), vendorLabels...) }

func labelIndex(labels []string, s string) (int, bool) {
	s = strings.TrimSpace(s)
	for i, l := range labels {
		if strings.EqualFold(l, s) {
			return i, true
		}
	}
	return 0, false
}

func labelAt(labels []string, i int) string {
	if i < 0 || i >= len(labels) {
		return labels[0]
	}
	return labels[i]
}

// ParseStatus maps a stored label onto the enum. Unknown labels come back as
// the default with ok=false so loaders can count legacy values.
func ParseStatus(s string) (Status, bool) {
	i, ok := labelIndex(statusLabels, s)
	return Status(i), ok
}

func ParseSystem(s string) (System, bool) {
	i, ok := labelIndex(systemLabels, s)
	return System(i), ok
}

func ParseVendor(s string) (Vendor, bool) {
	i, ok := labelIndex(vendorLabels, s)
	return Vendor(i), ok
}

func (s Status) String() string { return labelAt(statusLabels, int(s)) }
func (s System) String() string { return labelAt(systemLabels, int(s)) }
func (v Vendor) String() string { return labelAt(vendorLabels, int(v)) }

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s System) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (v Vendor) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	v, ok := ParseStatus(string(b))
	if !ok {
		return fmt.Errorf("%w: status %q", ErrInvalidValue, string(b))
	}
	*s = v
	return nil
}

func (s *System) UnmarshalText(b []byte) error {
	v, ok := ParseSystem(string(b))
	if !ok {
		return fmt.Errorf("%w: system %q", ErrInvalidValue, string(b))
	}
	*s = v
	return nil
}

func (v *Vendor) UnmarshalText(b []byte) error {
	x, ok := ParseVendor(string(b))
	if !ok {
		return fmt.Errorf("%w: vendor %q", ErrInvalidValue, string(b))
	}
	*v = x
	return nil
}

// Color is the RGBA marker color the map uses for a status.
func (s Status) Color() [4]int {
	switch s {
	case StatusClient:
		return [4]int{0, 255, 128, 255}
	case StatusVisited, StatusDemoGiven:
		return [4]int{0, 128, 255, 255}
	case StatusContacted:
		return [4]int{255, 165, 0, 255}
	default:
		return [4]int{255, 80, 80, 255}
	}
}
