// Package mains guesses the local electrical mains frequency from the system
// timezone, and tells whether its hum harmonics fall inside the declick bands.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// DefaultHz is used when the country cannot be determined; 50 Hz is the more common supply
const DefaultHz = 50

// Detection is the outcome of a mains frequency lookup
type Detection struct {
	Hz       int    // 50 or 60
	Timezone string // IANA name, empty if the runtime zone is unknown
	Country  string // Empty when the zone has no country
	Guessed  bool   // Hz is DefaultHz because the lookup failed
}

// Detect looks up the mains frequency for the runtime timezone
func Detect() Detection {
	zone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Detection{Hz: DefaultHz, Guessed: true}
	}
	return ForTimezone(zone)
}

// ForTimezone looks up the mains frequency for an IANA timezone
func ForTimezone(zone string) Detection {
	d := Detection{Hz: DefaultHz, Timezone: zone, Guessed: true}

	// UTC and the Etc/ zones carry no country
	if zone == "UTC" || zone == "GMT" || strings.HasPrefix(zone, "Etc/") {
		return d
	}

	countries, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return d
	}
	country, err := countries.GetCountry(zone)
	if err != nil {
		return d
	}

	d.Country = country
	d.Guessed = false
	if sixtyHertz[country] {
		d.Hz = 60
	}
	return d
}

// Harmonics lists the multiples of mainsHz from the fundamental up to maxHz
func Harmonics(mainsHz int, maxHz float64) []float64 {
	if mainsHz <= 0 {
		return nil
	}
	var out []float64
	for f := float64(mainsHz); f <= maxHz; f += float64(mainsHz) {
		out = append(out, f)
	}
	return out
}

// HumOverlap reports whether a declick band starting at lowEdgeHz reaches down
// to the second mains harmonic, where hum energy is strong enough to trigger
// false detections.
func HumOverlap(lowEdgeHz float64, mainsHz int) bool {
	return mainsHz > 0 && lowEdgeHz <= 2*float64(mainsHz)
}

// sixtyHertz holds the countries on a 60 Hz supply, by the names go-timezone-country
// returns. Japan is split by region and stays at the 50 Hz default (Tokyo).
// Brazil has both, 60 Hz predominates.
var sixtyHertz = countrySet(
	// North and Central America
	"United States", "Canada", "Mexico",
	"Belize", "Costa Rica", "El Salvador", "Guatemala", "Honduras", "Nicaragua", "Panama",

	// Caribbean
	"Bahamas", "Barbados", "Cayman Islands", "Cuba", "Dominican Republic", "Haiti",
	"Jamaica", "Puerto Rico", "Trinidad and Tobago", "U.S. Virgin Islands",

	// South America
	"Brazil", "Colombia", "Ecuador", "Guyana", "Peru", "Suriname", "Venezuela",

	// Asia
	"South Korea", "Taiwan", "Philippines", "Saudi Arabia",

	// Pacific
	"Guam", "American Samoa", "Marshall Islands", "Micronesia", "Palau",
)

func countrySet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
