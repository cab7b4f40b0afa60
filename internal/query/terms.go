package query

// Bilingual (German/English) keyword tables for intent analysis.
// The source models this system targets are predominantly authored in
// German; queries arrive in either language.

// stopwords are dropped from keyword extraction.
var stopwords = map[string]bool{
	// German
	"der": true, "die": true, "das": true, "den": true, "dem": true,
	"ein": true, "eine": true, "einen": true, "einem": true, "einer": true,
	"und": true, "oder": true, "aber": true, "nicht": true, "kein": true,
	"ist": true, "sind": true, "war": true, "waren": true, "wird": true,
	"es": true, "gibt": true, "hat": true, "haben": true, "kann": true,
	"wie": true, "was": true, "wo": true, "wer": true, "wann": true,
	"viele": true, "viel": true, "alle": true, "im": true, "in": true,
	"am": true, "an": true, "auf": true, "aus": true, "bei": true,
	"mit": true, "nach": true, "von": true, "vor": true, "zu": true,
	"zur": true, "zum": true, "für": true, "über": true, "unter": true,
	"sich": true, "auch": true, "noch": true, "nur": true, "sehr": true,
	// English ("an" and "was" are already in the German block)
	"the": true, "a": true, "and": true, "or": true,
	"but": true, "not": true, "no": true, "is": true, "are": true,
	"were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"how": true, "many": true, "much": true, "what": true, "which": true,
	"where": true, "when": true, "who": true, "there": true, "their": true,
	"of": true, "to": true, "on": true, "at": true, "by": true,
	"for": true, "with": true, "from": true, "about": true, "into": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"all": true, "any": true, "some": true, "can": true, "will": true,
}

// termToTypes maps natural-language element terms (singular and
// plural, both languages) to schema entity types.
var termToTypes = map[string][]string{
	// Walls
	"wand": {"IFCWALL", "IFCWALLSTANDARDCASE"}, "wände": {"IFCWALL", "IFCWALLSTANDARDCASE"},
	"wande": {"IFCWALL", "IFCWALLSTANDARDCASE"},
	"wall": {"IFCWALL", "IFCWALLSTANDARDCASE"}, "walls": {"IFCWALL", "IFCWALLSTANDARDCASE"},
	// Doors
	"tür": {"IFCDOOR"}, "türen": {"IFCDOOR"}, "tur": {"IFCDOOR"}, "turen": {"IFCDOOR"},
	"door": {"IFCDOOR"}, "doors": {"IFCDOOR"},
	// Windows
	"fenster": {"IFCWINDOW"}, "window": {"IFCWINDOW"}, "windows": {"IFCWINDOW"},
	// Stairs
	"treppe": {"IFCSTAIR"}, "treppen": {"IFCSTAIR"}, "stair": {"IFCSTAIR"}, "stairs": {"IFCSTAIR"},
	// Columns
	"stütze": {"IFCCOLUMN"}, "stützen": {"IFCCOLUMN"}, "säule": {"IFCCOLUMN"}, "säulen": {"IFCCOLUMN"},
	"column": {"IFCCOLUMN"}, "columns": {"IFCCOLUMN"},
	// Beams
	"träger": {"IFCBEAM"}, "unterzug": {"IFCBEAM"}, "unterzüge": {"IFCBEAM"},
	"beam": {"IFCBEAM"}, "beams": {"IFCBEAM"},
	// Slabs
	"decke": {"IFCSLAB"}, "decken": {"IFCSLAB"}, "bodenplatte": {"IFCSLAB"},
	"slab": {"IFCSLAB"}, "slabs": {"IFCSLAB"}, "floor": {"IFCSLAB"},
	// Roofs
	"dach": {"IFCROOF"}, "dächer": {"IFCROOF"}, "roof": {"IFCROOF"}, "roofs": {"IFCROOF"},
	// Spaces
	"raum": {"IFCSPACE"}, "räume": {"IFCSPACE"}, "zimmer": {"IFCSPACE"},
	"space": {"IFCSPACE"}, "spaces": {"IFCSPACE"}, "room": {"IFCSPACE"}, "rooms": {"IFCSPACE"},
	// Pipes
	"rohr": {"IFCPIPESEGMENT"}, "rohre": {"IFCPIPESEGMENT"}, "leitung": {"IFCPIPESEGMENT"},
	"leitungen": {"IFCPIPESEGMENT"},
	"pipe": {"IFCPIPESEGMENT"}, "pipes": {"IFCPIPESEGMENT"},
	// Ducts
	"kanal": {"IFCDUCTSEGMENT"}, "kanäle": {"IFCDUCTSEGMENT"},
	"duct": {"IFCDUCTSEGMENT"}, "ducts": {"IFCDUCTSEGMENT"},
	// Lights
	"leuchte": {"IFCLIGHTFIXTURE"}, "leuchten": {"IFCLIGHTFIXTURE"}, "lampe": {"IFCLIGHTFIXTURE"},
	"lampen": {"IFCLIGHTFIXTURE"},
	"light": {"IFCLIGHTFIXTURE"}, "lights": {"IFCLIGHTFIXTURE"},
	// Furniture
	"möbel": {"IFCFURNISHINGELEMENT"}, "furniture": {"IFCFURNISHINGELEMENT"},
}

// wildcardTokens request every entity type.
var wildcardTokens = map[string]bool{
	"*": true, "all": true, "alle": true, "everything": true, "alles": true,
}

// systemKeywords lists the characteristic query terms per discipline.
var systemKeywords = map[string][]string{
	"hvac": {
		"lüftung", "luftung", "klima", "heizung", "hvac", "ventilation",
		"heating", "cooling", "air", "luft", "kanal", "duct",
	},
	"electrical": {
		"elektro", "elektrik", "strom", "beleuchtung", "electrical",
		"electric", "power", "lighting", "kabel", "cable",
	},
	"plumbing": {
		"sanitär", "sanitar", "wasser", "abwasser", "plumbing", "water",
		"sewage", "rohr", "pipe",
	},
	"structural": {
		"tragwerk", "statik", "structural", "structure", "tragend",
		"load-bearing", "beton", "concrete", "stahl", "steel",
	},
}

// systemCharacteristicTypes are injected into the entity-type set when
// a discipline's keywords match.
var systemCharacteristicTypes = map[string][]string{
	"hvac":       {"IFCDUCTSEGMENT", "IFCDUCTFITTING", "IFCAIRTERMINAL"},
	"electrical": {"IFCCABLECARRIERSEGMENT", "IFCLIGHTFIXTURE", "IFCOUTLET"},
	"plumbing":   {"IFCPIPESEGMENT", "IFCPIPEFITTING", "IFCSANITARYTERMINAL"},
	"structural": {"IFCBEAM", "IFCCOLUMN", "IFCSLAB"},
}

// namedWings are fixed spatial phrases recognized as spatial terms.
var namedWings = []string{
	"westflügel", "ostflügel", "nordflügel", "südflügel",
	"west wing", "east wing", "north wing", "south wing",
}
