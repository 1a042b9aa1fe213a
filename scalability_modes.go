package mediasoup

import (
	"regexp"
	"strconv"
)

var scalabilityModeRegex = regexp.MustCompile(`^[LS]([1-9]\d{0,1})T([1-9]\d{0,1})(_KEY)?`)

// ScalabilityMode is the parsed form of a scalability mode string such as
// "L3T3_KEY" or "S2T1".
type ScalabilityMode struct {
	SpatialLayers  uint8 `json:"spatialLayers"`
	TemporalLayers uint8 `json:"temporalLayers"`
	Ksvc           bool  `json:"ksvc"`
}

// ParseScalabilityMode parses mode. Anything unparseable means a single
// spatial and temporal layer.
func ParseScalabilityMode(mode string) ScalabilityMode {
	match := scalabilityModeRegex.FindStringSubmatch(mode)
	if len(match) != 4 {
		return ScalabilityMode{SpatialLayers: 1, TemporalLayers: 1}
	}
	spatialLayers, _ := strconv.ParseUint(match[1], 10, 8)
	temporalLayers, _ := strconv.ParseUint(match[2], 10, 8)

	return ScalabilityMode{
		SpatialLayers:  uint8(spatialLayers),
		TemporalLayers: uint8(temporalLayers),
		Ksvc:           len(match[3]) > 0,
	}
}
