package molfile

import "strings"

// DefaultRadius is used for elements missing from the radius table.
const DefaultRadius = 1.5

// vdwRadii holds van der Waals radii in Angstrom (Bondi 1964, with
// hydrogen from Rowland and Taylor 1996).
var vdwRadii = map[string]float32{
	"H":  1.10,
	"C":  1.70,
	"N":  1.55,
	"O":  1.52,
	"F":  1.47,
	"P":  1.80,
	"S":  1.80,
	"CL": 1.75,
	"BR": 1.85,
	"I":  1.98,
	"SE": 1.90,
	"NA": 2.27,
	"MG": 1.73,
	"K":  2.75,
	"CA": 2.31,
	"FE": 2.00,
	"ZN": 1.39,
	"CU": 1.40,
	"MN": 2.00,
}

// Radius returns the van der Waals radius of an element symbol,
// case-insensitively, or DefaultRadius if it is unknown.
func Radius(element string) float32 {
	if r, ok := vdwRadii[strings.ToUpper(strings.TrimSpace(element))]; ok {
		return r
	}
	return DefaultRadius
}
