package flight

import "time"

// SampleRoster returns the built-in two-flight roster used whenever the
// dispatch proxy is not configured or not reachable. Each call returns a
// fresh slice.
func SampleRoster() []Flight {
	return []Flight{
		{
			ID:           "f001",
			Callsign:     "VAM123",
			FlightNumber: "VA123",
			Aircraft:     Aircraft{ICAO: "A320", Reg: "EC-VAA"},
			Dep:          Station{ICAO: "LEVC", Name: "Valencia"},
			Arr:          Station{ICAO: "LEMD", Name: "Madrid"},
			ETD:          time.Date(2026, 1, 17, 20, 30, 0, 0, time.UTC),
			ETA:          time.Date(2026, 1, 17, 21, 25, 0, 0, time.UTC),
			Route:        "DCT VTB UN975 TOSNU DCT",
			Status:       "Scheduled",
		},
		{
			ID:           "f002",
			Callsign:     "VAM456",
			FlightNumber: "VA456",
			Aircraft:     Aircraft{ICAO: "B738", Reg: "EC-VAB"},
			Dep:          Station{ICAO: "LEMD", Name: "Madrid"},
			Arr:          Station{ICAO: "LEBL", Name: "Barcelona"},
			ETD:          time.Date(2026, 1, 18, 9, 10, 0, 0, time.UTC),
			ETA:          time.Date(2026, 1, 18, 10, 20, 0, 0, time.UTC),
			Route:        "DCT TOU UN851 BCN DCT",
			Status:       "Scheduled",
		},
	}
}

// Find returns the flight with the given id.
func Find(flights []Flight, id string) (Flight, bool) {
	for _, f := range flights {
		if f.ID == id {
			return f, true
		}
	}
	return Flight{}, false
}
