// Package mains works out the local electrical mains frequency from the
// system time zone, so the analyzer's high-pass filter can be placed above the
// hum that frequency induces in recordings.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// DefaultHz is assumed when the time zone says nothing about the country.
const DefaultHz = 50

// Detection is the outcome of a mains frequency lookup.
type Detection struct {
	Timezone string // IANA zone consulted, empty if it could not be read
	Country  string // country for the zone, empty if unknown
	Hz       int    // 50 or 60
	Guessed  bool   // true when Hz is DefaultHz for lack of information
}

// Cutoff returns the high-pass cutoff in Hz used to keep mains hum from
// registering as sound: one octave above the fundamental.
func (d Detection) Cutoff() float64 {
	return float64(2 * d.Hz)
}

// Detect looks up the mains frequency for the local time zone.
func Detect() Detection {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Detection{Hz: DefaultHz, Guessed: true}
	}
	return ForTimezone(timezone)
}

// ForTimezone returns the mains frequency for an IANA time zone.
func ForTimezone(timezone string) Detection {
	d := Detection{Timezone: timezone, Hz: DefaultHz, Guessed: true}

	// UTC/GMT have no country association
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return d
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return d
	}
	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return d
	}

	d.Country = country
	d.Hz, d.Guessed = frequencyForCountry(country)
	return d
}

// frequencyForCountry returns the mains frequency for a country name and
// whether it is a guess. Countries not listed use 50 Hz.
func frequencyForCountry(country string) (int, bool) {
	// Japan is split 50/60 Hz by region; Tokyo is 50 Hz.
	if country == "Japan" {
		return 50, true
	}
	if hz60Countries[country] {
		return 60, false
	}
	return 50, false
}

// hz60Countries lists countries using 60Hz mains power.
// All other countries use 50Hz.
// Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var hz60Countries = map[string]bool{
	// North America
	"United States": true,
	"Canada":        true,
	"Mexico":        true,

	// Central America
	"Belize":      true,
	"Costa Rica":  true,
	"El Salvador": true,
	"Guatemala":   true,
	"Honduras":    true,
	"Nicaragua":   true,
	"Panama":      true,

	// Caribbean
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,

	// South America (partial, most use 50Hz)
	"Brazil":    true, // Note: Brazil has both 50Hz and 60Hz regions; 60Hz predominant
	"Colombia":  true,
	"Ecuador":   true,
	"Guyana":    true,
	"Peru":      true,
	"Suriname":  true,
	"Venezuela": true,

	// Asia (partial)
	"South Korea":  true,
	"Taiwan":       true,
	"Philippines":  true,
	"Saudi Arabia": true,

	// Pacific
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
