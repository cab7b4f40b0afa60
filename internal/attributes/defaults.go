package attributes

// Property name aliases, checked in order. The first present,
// numeric, positive value wins.
var (
	lengthAliases    = []string{"Length", "NetLength", "OverallLength", "Laenge", "Länge"}
	widthAliases     = []string{"Width", "NetWidth", "OverallWidth", "Breite"}
	heightAliases    = []string{"Height", "NetHeight", "OverallHeight", "Hoehe", "Höhe"}
	thicknessAliases = []string{"Thickness", "WallThickness", "Dicke"}
	areaAliases      = []string{"Area", "NetArea", "GrossArea", "NetSideArea", "Flaeche", "Fläche"}
	volumeAliases    = []string{"Volume", "NetVolume", "GrossVolume", "Volumen"}

	materialAliases = []string{"Material", "MaterialName", "Material Name", "Baustoff"}
	densityAliases  = []string{"Density", "MaterialDensity", "Dichte"}
)

// defaultDensity is assumed when a material matches no keyword. kg/m³.
const defaultDensity = 1000.0

// densityByKeyword maps construction material name substrings to
// typical densities in kg/m³. Matched case-insensitively.
var densityByKeyword = []struct {
	keyword string
	density float64
}{
	{"stahlbeton", 2500},
	{"beton", 2400},
	{"concrete", 2400},
	{"stahl", 7850},
	{"steel", 7850},
	{"aluminium", 2700},
	{"aluminum", 2700},
	{"glas", 2500},
	{"glass", 2500},
	{"ziegel", 1800},
	{"brick", 1800},
	{"kalksandstein", 1900},
	{"holz", 600},
	{"wood", 600},
	{"timber", 600},
	{"gips", 900},
	{"gypsum", 900},
	{"dämm", 50},
	{"daemm", 50},
	{"insulation", 50},
	{"mineralwolle", 100},
}

// wallLikeTypes are entity types whose volume may be derived from
// thickness x area when no direct volume is present.
var wallLikeTypes = map[string]bool{
	"IFCWALL":             true,
	"IFCWALLSTANDARDCASE": true,
	"IFCCURTAINWALL":      true,
}
