package services

import (
	"strings"

	"multimodal-route-service/internal/domain"
)

// Confidence of each fallback level. All stay at or below 0.3.
const (
	fallbackConfidenceArea     = 0.3
	fallbackConfidenceProvince = 0.2
	fallbackConfidenceCountry  = 0.1
)

// Regional centroids keyed by the first two postal code digits. Every point is on land;
// a linear formula over the code placed e.g. 19xx (Velsen) in the North Sea.
var areaCentroids = map[string]domain.Coordinates{
	"10": {Lon: 4.900, Lat: 52.370}, // Amsterdam
	"11": {Lon: 4.870, Lat: 52.300}, // Amstelveen
	"12": {Lon: 5.170, Lat: 52.230}, // Hilversum
	"13": {Lon: 5.220, Lat: 52.370}, // Almere
	"14": {Lon: 4.960, Lat: 52.500}, // Purmerend
	"15": {Lon: 4.820, Lat: 52.440}, // Zaandam
	"16": {Lon: 5.060, Lat: 52.640}, // Hoorn
	"17": {Lon: 4.830, Lat: 52.670}, // Heerhugowaard
	"18": {Lon: 4.750, Lat: 52.630}, // Alkmaar
	"19": {Lon: 4.650, Lat: 52.450}, // Velsen
	"20": {Lon: 4.640, Lat: 52.380}, // Haarlem
	"21": {Lon: 4.600, Lat: 52.330}, // Heemstede
	"22": {Lon: 4.540, Lat: 52.230}, // Lisse
	"23": {Lon: 4.490, Lat: 52.160}, // Leiden
	"24": {Lon: 4.660, Lat: 52.130}, // Alphen aan den Rijn
	"25": {Lon: 4.300, Lat: 52.070}, // Den Haag
	"26": {Lon: 4.360, Lat: 52.010}, // Delft
	"27": {Lon: 4.490, Lat: 52.060}, // Zoetermeer
	"28": {Lon: 4.710, Lat: 52.010}, // Gouda
	"29": {Lon: 4.580, Lat: 51.920}, // Capelle aan den IJssel
	"30": {Lon: 4.480, Lat: 51.920}, // Rotterdam
	"31": {Lon: 4.390, Lat: 51.910}, // Schiedam
	"32": {Lon: 4.330, Lat: 51.850}, // Spijkenisse
	"33": {Lon: 4.670, Lat: 51.810}, // Dordrecht
	"34": {Lon: 5.080, Lat: 52.030}, // Nieuwegein
	"35": {Lon: 5.120, Lat: 52.090}, // Utrecht
	"36": {Lon: 5.030, Lat: 52.130}, // Maarssen
	"37": {Lon: 5.230, Lat: 52.090}, // Zeist
	"38": {Lon: 5.390, Lat: 52.160}, // Amersfoort
	"39": {Lon: 5.560, Lat: 52.030}, // Veenendaal
	"40": {Lon: 5.430, Lat: 51.890}, // Tiel
	"41": {Lon: 5.230, Lat: 51.960}, // Culemborg
	"42": {Lon: 4.970, Lat: 51.830}, // Gorinchem
	"43": {Lon: 3.920, Lat: 51.650}, // Zierikzee
	"44": {Lon: 3.890, Lat: 51.500}, // Goes
	"45": {Lon: 3.830, Lat: 51.330}, // Terneuzen
	"46": {Lon: 4.290, Lat: 51.490}, // Bergen op Zoom
	"47": {Lon: 4.470, Lat: 51.530}, // Roosendaal
	"48": {Lon: 4.780, Lat: 51.590}, // Breda
	"49": {Lon: 4.860, Lat: 51.640}, // Oosterhout
	"50": {Lon: 5.090, Lat: 51.560}, // Tilburg
	"51": {Lon: 5.070, Lat: 51.680}, // Waalwijk
	"52": {Lon: 5.300, Lat: 51.690}, // 's-Hertogenbosch
	"53": {Lon: 5.250, Lat: 51.810}, // Zaltbommel
	"54": {Lon: 5.620, Lat: 51.660}, // Uden
	"55": {Lon: 5.400, Lat: 51.420}, // Veldhoven
	"56": {Lon: 5.480, Lat: 51.440}, // Eindhoven
	"57": {Lon: 5.660, Lat: 51.480}, // Helmond
	"58": {Lon: 5.970, Lat: 51.530}, // Venray
	"59": {Lon: 6.170, Lat: 51.370}, // Venlo
	"60": {Lon: 5.710, Lat: 51.250}, // Weert
	"61": {Lon: 5.870, Lat: 51.000}, // Sittard
	"62": {Lon: 5.690, Lat: 50.850}, // Maastricht
	"63": {Lon: 5.830, Lat: 50.860}, // Valkenburg
	"64": {Lon: 5.980, Lat: 50.890}, // Heerlen
	"65": {Lon: 5.860, Lat: 51.840}, // Nijmegen
	"66": {Lon: 5.730, Lat: 51.810}, // Wijchen
	"67": {Lon: 5.660, Lat: 51.970}, // Wageningen
	"68": {Lon: 5.910, Lat: 51.980}, // Arnhem
	"69": {Lon: 6.070, Lat: 51.930}, // Zevenaar
	"70": {Lon: 6.290, Lat: 51.970}, // Doetinchem
	"71": {Lon: 6.720, Lat: 51.970}, // Winterswijk
	"72": {Lon: 6.200, Lat: 52.140}, // Zutphen
	"73": {Lon: 5.970, Lat: 52.210}, // Apeldoorn
	"74": {Lon: 6.160, Lat: 52.250}, // Deventer
	"75": {Lon: 6.890, Lat: 52.220}, // Enschede
	"76": {Lon: 6.660, Lat: 52.360}, // Almelo
	"77": {Lon: 6.620, Lat: 52.580}, // Hardenberg
	"78": {Lon: 6.910, Lat: 52.780}, // Emmen
	"79": {Lon: 6.480, Lat: 52.720}, // Hoogeveen
	"80": {Lon: 6.090, Lat: 52.510}, // Zwolle
	"81": {Lon: 6.280, Lat: 52.390}, // Raalte
	"82": {Lon: 5.470, Lat: 52.520}, // Lelystad
	"83": {Lon: 5.750, Lat: 52.710}, // Emmeloord
	"84": {Lon: 5.920, Lat: 52.960}, // Heerenveen
	"85": {Lon: 5.790, Lat: 52.970}, // Joure
	"86": {Lon: 5.660, Lat: 53.030}, // Sneek
	"87": {Lon: 5.530, Lat: 53.060}, // Bolsward
	"88": {Lon: 5.540, Lat: 53.190}, // Franeker
	"89": {Lon: 5.800, Lat: 53.200}, // Leeuwarden
	"90": {Lon: 5.990, Lat: 53.190}, // Burgum
	"91": {Lon: 5.990, Lat: 53.330}, // Dokkum
	"92": {Lon: 6.100, Lat: 53.110}, // Drachten
	"93": {Lon: 6.430, Lat: 53.140}, // Roden
	"94": {Lon: 6.560, Lat: 52.990}, // Assen
	"95": {Lon: 6.950, Lat: 52.990}, // Stadskanaal
	"96": {Lon: 6.760, Lat: 53.160}, // Hoogezand
	"97": {Lon: 6.570, Lat: 53.220}, // Groningen
	"98": {Lon: 6.400, Lat: 53.250}, // Zuidhorn
	"99": {Lon: 6.860, Lat: 53.320}, // Appingedam
}

// Province-level centroids keyed by the first digit.
var provinceCentroids = map[byte]domain.Coordinates{
	'1': {Lon: 4.900, Lat: 52.370},
	'2': {Lon: 4.450, Lat: 52.100},
	'3': {Lon: 5.120, Lat: 52.090},
	'4': {Lon: 4.300, Lat: 51.500},
	'5': {Lon: 5.300, Lat: 51.550},
	'6': {Lon: 5.850, Lat: 51.400},
	'7': {Lon: 6.400, Lat: 52.250},
	'8': {Lon: 5.800, Lat: 52.900},
	'9': {Lon: 6.550, Lat: 53.100},
}

var countryCentroid = domain.Coordinates{Lon: 5.290, Lat: 52.130}

// FallbackCoordinate maps the numeric postal code prefix to a fixed regional centroid.
// It is pure: the same prefix always yields the same resolution.
func FallbackCoordinate(postalCode string) domain.Resolution {
	digits := postalDigits(postalCode)

	r := domain.Resolution{
		Coordinates: countryCentroid,
		Confidence:  fallbackConfidenceCountry,
		Accuracy:    domain.AccuracyApproximate,
		Source:      domain.SourceFallback,
	}

	if len(digits) >= 2 {
		if c, ok := areaCentroids[digits[:2]]; ok {
			r.Coordinates = c
			r.Confidence = fallbackConfidenceArea
			return r
		}
	}
	if len(digits) >= 1 {
		if c, ok := provinceCentroids[digits[0]]; ok {
			r.Coordinates = c
			r.Confidence = fallbackConfidenceProvince
			return r
		}
	}

	return r
}

// postalDigits returns the leading run of digits, ignoring surrounding whitespace.
func postalDigits(postalCode string) string {
	s := strings.TrimSpace(postalCode)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
