package units

import (
	"fmt"

	munit "github.com/martinlindhe/unit"
)

// CapacityBaseDim is the Dims key every Capacity literal normalizes to, so
// "5 GB" and "3 MiB" are mutually compatible under AddSub instead of being
// treated as distinct, non-convertible dimension words the way Currency
// codes or Count nouns are (Cap used to key Dims directly off the literal's
// own suffix, which made cross-scale Capacity arithmetic fail dimensional
// equality even though both sides measure the same physical quantity).
const CapacityBaseDim = "B"

// capacityFactor maps a Capacity literal suffix to the number of bytes one
// unit of that suffix equals, delegating the decimal/binary-prefix
// arithmetic to github.com/martinlindhe/unit's Datasize type rather than a
// hand-maintained table of powers of 1000/1024.
var capacityFactor = map[string]float64{
	"bit": float64(munit.Bit) / float64(munit.Byte),
	"B":   float64(munit.Byte) / float64(munit.Byte),
	"KB":  float64(munit.Kilobyte) / float64(munit.Byte),
	"MB":  float64(munit.Megabyte) / float64(munit.Byte),
	"GB":  float64(munit.Gigabyte) / float64(munit.Byte),
	"TB":  float64(munit.Terabyte) / float64(munit.Byte),
	"PB":  float64(munit.Petabyte) / float64(munit.Byte),
	"KiB": float64(munit.Kibibyte) / float64(munit.Byte),
	"MiB": float64(munit.Mebibyte) / float64(munit.Byte),
	"GiB": float64(munit.Gibibyte) / float64(munit.Byte),
	"TiB": float64(munit.Tebibyte) / float64(munit.Byte),
	"PiB": float64(munit.Pebibyte) / float64(munit.Byte),
}

// IsCapacityUnit reports whether word is a recognized Capacity literal
// suffix.
func IsCapacityUnit(word string) bool {
	_, ok := capacityFactor[word]
	return ok
}

// NormalizeCapacity converts value, expressed in the given Capacity suffix,
// to the equivalent quantity in CapacityBaseDim (bytes).
func NormalizeCapacity(value float64, suffix string) (float64, error) {
	factor, ok := capacityFactor[suffix]
	if !ok {
		return 0, fmt.Errorf("unknown capacity unit %q", suffix)
	}
	return value * factor, nil
}

// CapUnit builds the canonical Capacity-kind unit every Capacity literal
// resolves to, regardless of which suffix it was written with.
func CapUnit() U {
	return U{Kind: Capacity, Dims: map[string]int{CapacityBaseDim: 1}}
}
