package model

import (
	"fmt"
	"math"
	"strings"
)

// SortMethod selects the key the piece queue is ordered by, always descending.
type SortMethod string

const (
	SortMaxSide SortMethod = "max-side" // max(width, height)
	SortArea    SortMethod = "area"     // width * height
	SortWidth   SortMethod = "width"
	SortHeight  SortMethod = "height"
)

// SortMethods lists every supported sort method, default first.
func SortMethods() []SortMethod {
	return []SortMethod{SortMaxSide, SortArea, SortWidth, SortHeight}
}

func (m SortMethod) String() string {
	switch m {
	case SortMaxSide:
		return "Max side"
	case SortArea:
		return "Area"
	case SortWidth:
		return "Width"
	case SortHeight:
		return "Height"
	default:
		return string(m)
	}
}

// Valid reports whether m is one of SortMethods.
func (m SortMethod) Valid() bool {
	for _, known := range SortMethods() {
		if m == known {
			return true
		}
	}
	return false
}

// ParseSortMethod accepts the canonical names plus the "-desc" spellings
// ("area-desc", "max-side-desc", ...). Matching is case-insensitive.
func ParseSortMethod(s string) (SortMethod, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.TrimSuffix(normalized, "-desc")
	switch normalized {
	case "max-side", "maxside", "max":
		return SortMaxSide, nil
	case "area":
		return SortArea, nil
	case "width", "w":
		return SortWidth, nil
	case "height", "h":
		return SortHeight, nil
	}
	return "", fmt.Errorf("%w: unknown sort method %q", ErrInvalidOptions, s)
}

// Options configures a single optimization call. There is no shared default
// state: every call receives its own copy.
type Options struct {
	AllowRotation       bool       `json:"allow_rotation" yaml:"allow_rotation"`
	SortMethod          SortMethod `json:"sort_method" yaml:"sort_method"`
	EfficiencyThreshold float64    `json:"efficiency_threshold" yaml:"efficiency_threshold"` // Fraction in [0, 1]
	Kerf                float64    `json:"kerf" yaml:"kerf"`                                 // Gap left after each piece and each row
	MaxSheets           int        `json:"max_sheets" yaml:"max_sheets"`                     // 0 = unlimited
	MaxGateRetries      int        `json:"max_gate_retries" yaml:"max_gate_retries"`         // Rejections tolerated per sheet before fallback
}

const (
	DefaultEfficiencyThreshold = 0.85
	DefaultMaxGateRetries      = 8
)

func DefaultOptions() Options {
	return Options{
		AllowRotation:       false,
		SortMethod:          SortMaxSide,
		EfficiencyThreshold: DefaultEfficiencyThreshold,
		Kerf:                0,
		MaxSheets:           0,
		MaxGateRetries:      DefaultMaxGateRetries,
	}
}

// Validate checks that every option is in range.
func (o Options) Validate() error {
	if !o.SortMethod.Valid() {
		return fmt.Errorf("%w: unknown sort method %q", ErrInvalidOptions, o.SortMethod)
	}
	if math.IsNaN(o.EfficiencyThreshold) || o.EfficiencyThreshold < 0 || o.EfficiencyThreshold > 1 {
		return fmt.Errorf("%w: efficiency threshold %v outside [0, 1]", ErrInvalidOptions, o.EfficiencyThreshold)
	}
	if math.IsNaN(o.Kerf) || math.IsInf(o.Kerf, 0) || o.Kerf < 0 {
		return fmt.Errorf("%w: kerf %v must be a finite non-negative number", ErrInvalidOptions, o.Kerf)
	}
	if o.MaxSheets < 0 {
		return fmt.Errorf("%w: max sheets %d is negative", ErrInvalidOptions, o.MaxSheets)
	}
	if o.MaxGateRetries < 0 {
		return fmt.Errorf("%w: max gate retries %d is negative", ErrInvalidOptions, o.MaxGateRetries)
	}
	return nil
}

// IsPositiveFinite reports whether v is a usable dimension.
func IsPositiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
