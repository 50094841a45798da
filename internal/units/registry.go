// Package units resolves unit strings against a fixed vocabulary of
// symbols and SI magnitude prefixes.
//
// Resolution is a pure function over static tables: an exact symbol match
// wins, otherwise the string is split into a known prefix plus a known
// symbol. Anything else resolves to a custom-unit marker so that callers
// can carry instrument-specific units without losing them.
package units

import "fmt"

// Unit is the resolved form of a unit string.
type Unit struct {
	// Symbol is the canonical unit symbol ("C", "m", "eV", ...).
	// For custom units it is the original string unchanged.
	Symbol string

	// Factor converts a value expressed with the original prefix into the
	// canonical symbol (e.g. "pC" -> Factor 1e-12, Symbol "C").
	Factor float64

	// Custom marks a unit that did not resolve against the vocabulary.
	Custom bool
}

// knownSymbols is the fixed unit vocabulary. Values are human-readable
// names used only in error messages.
var knownSymbols = map[string]string{
	"1":       "dimensionless",
	"A":       "ampere",
	"C":       "coulomb",
	"Hz":      "hertz",
	"J":       "joule",
	"K":       "kelvin",
	"N":       "newton",
	"Pa":      "pascal",
	"T":       "tesla",
	"V":       "volt",
	"W":       "watt",
	"eV":      "electronvolt",
	"eV/c":    "electronvolt per speed of light",
	"g":       "gram",
	"m":       "meter",
	"m/s":     "meter per second",
	"rad":     "radian",
	"degree":  "degree",
	"s":       "second",
	"count":   "count",
	"percent": "percent",
}

// prefix pairs a magnitude prefix with its factor. Long forms are checked
// before short forms so "milli" never parses as "m" + "illi".
type prefix struct {
	name   string
	factor float64
}

var longPrefixes = []prefix{
	{"yotta", 1e24}, {"zetta", 1e21}, {"exa", 1e18}, {"peta", 1e15},
	{"tera", 1e12}, {"giga", 1e9}, {"mega", 1e6}, {"kilo", 1e3},
	{"hecto", 1e2}, {"deca", 1e1}, {"deci", 1e-1}, {"centi", 1e-2},
	{"milli", 1e-3}, {"micro", 1e-6}, {"nano", 1e-9}, {"pico", 1e-12},
	{"femto", 1e-15}, {"atto", 1e-18}, {"zepto", 1e-21}, {"yocto", 1e-24},
}

var shortPrefixes = []prefix{
	{"Y", 1e24}, {"Z", 1e21}, {"E", 1e18}, {"P", 1e15},
	{"T", 1e12}, {"G", 1e9}, {"M", 1e6}, {"k", 1e3},
	{"h", 1e2}, {"da", 1e1}, {"d", 1e-1}, {"c", 1e-2},
	{"m", 1e-3}, {"u", 1e-6}, {"n", 1e-9}, {"p", 1e-12},
	{"f", 1e-15}, {"a", 1e-18}, {"z", 1e-21}, {"y", 1e-24},
}

// Resolve maps a unit string to its canonical form. An exact symbol match
// resolves with factor 1. Otherwise each known prefix is tried against the
// head of the string; a known symbol in the remainder resolves with the
// prefix factor folded in. Unrecognized strings resolve to a custom unit
// with factor 1 rather than failing.
func Resolve(s string) (Unit, error) {
	if s == "" {
		return Unit{}, fmt.Errorf("unit string must not be empty")
	}

	// Exact match first: "m" is the meter, never the milli prefix.
	if _, ok := knownSymbols[s]; ok {
		return Unit{Symbol: s, Factor: 1}, nil
	}

	for _, p := range longPrefixes {
		if u, ok := splitPrefix(s, p); ok {
			return u, nil
		}
	}
	for _, p := range shortPrefixes {
		if u, ok := splitPrefix(s, p); ok {
			return u, nil
		}
	}

	return Unit{Symbol: s, Factor: 1, Custom: true}, nil
}

// ResolveStrict is Resolve without the custom-unit fallback: unrecognized
// strings fail instead of resolving.
func ResolveStrict(s string) (Unit, error) {
	u, err := Resolve(s)
	if err != nil {
		return Unit{}, err
	}
	if u.Custom {
		return Unit{}, fmt.Errorf("unknown unit %q", s)
	}
	return u, nil
}

// Known reports whether s resolves without the custom fallback.
func Known(s string) bool {
	u, err := Resolve(s)
	return err == nil && !u.Custom
}

func splitPrefix(s string, p prefix) (Unit, bool) {
	if len(s) <= len(p.name) || s[:len(p.name)] != p.name {
		return Unit{}, false
	}
	base := s[len(p.name):]
	if _, ok := knownSymbols[base]; !ok {
		return Unit{}, false
	}
	return Unit{Symbol: base, Factor: p.factor}, true
}
