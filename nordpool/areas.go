package nordpool

import (
	"fmt"
	"time"
)

// areaTimezones maps Nord Pool delivery area codes to the timezone that the
// local trading day is defined in for that area.
var areaTimezones = map[string]string{
	"DK1": "Europe/Copenhagen",
	"DK2": "Europe/Copenhagen",
	"FI":  "Europe/Helsinki",
	"EE":  "Europe/Tallinn",
	"LT":  "Europe/Vilnius",
	"LV":  "Europe/Riga",
	"NO1": "Europe/Oslo",
	"NO2": "Europe/Oslo",
	"NO3": "Europe/Oslo",
	"NO4": "Europe/Oslo",
	"NO5": "Europe/Oslo",
	"SE1": "Europe/Stockholm",
	"SE2": "Europe/Stockholm",
	"SE3": "Europe/Stockholm",
	"SE4": "Europe/Stockholm",
	"SYS": "Europe/Stockholm",
	"FR":  "Europe/Paris",
	"NL":  "Europe/Amsterdam",
	"BE":  "Europe/Brussels",
	"AT":  "Europe/Vienna",
	"GER": "Europe/Berlin",
}

// LocationFor returns the timezone location for the given delivery area code.
func LocationFor(area string) (*time.Location, error) {
	name, ok := areaTimezones[area]
	if !ok {
		return nil, fmt.Errorf("unknown delivery area: %q", area)
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q for area %q: %w", name, area, err)
	}
	return location, nil
}
