package health

import (
	"github.com/richinex/healthradar/tools"
)

// Data-source identifiers reported alongside answers.
const (
	SourceAirQuality       = "air_quality"
	SourceHospitalCapacity = "hospital_capacity"
	SourceFlu              = "flu"
	SourceFDAEnforcements  = "fda_enforcements"
)

// Operations returns the fixed operation set.
func Operations(deps Deps) []tools.Tool {
	return []tools.Tool{
		NewAirQuality(deps),
		NewHospitalCapacity(deps),
		NewFlu(deps),
		NewFDAEnforcements(deps),
	}
}

// NewRegistry freezes the operation set into a registry.
func NewRegistry(deps Deps) (*tools.Registry, error) {
	return tools.NewRegistry(Operations(deps)...)
}
