package report

import "regexp"

// Best-effort spacing fixes for scraped detail text, whose markup boundaries collapse words together
// ("Boston Red SoxplacedRHPLucas Giolitoon the 15-day injured list"). These passes can split ordinary
// words that happen to match ("Chicago" starts with the catcher abbreviation); that is accepted.
var (
	actionVerbs = `optioned|selected|recalled|placed|designated|reinstated|released|signed|traded|claimed`

	// "Soxplaced" -> "Sox placed"
	glueBeforeVerb = regexp.MustCompile(`(\w)(` + actionVerbs + `)`)
	// "placedSmith" -> "placed Smith"
	glueAfterVerb = regexp.MustCompile(`(` + actionVerbs + `)([A-Z])`)
	// "RHPLucas" -> "RHP Lucas"
	glueAfterPosition = regexp.MustCompile(`(RHP|LHP|CF|RF|LF|SS|2B|3B|1B|C|DH)([A-Za-z])`)
	// "SmithonIL" -> "Smith on IL"
	prepositionBeforeAbbrev = regexp.MustCompile(`([a-z])(on|to|from)([A-Z]{2,}\b)`)
	// "Giolitoon the" -> "Giolito on the"
	prepositionBeforeThe = regexp.MustCompile(`([a-z])(on|to|from) the\b`)
	// "LucasGiolitoJr" -> "Lucas Giolito Jr"
	gluedNames = regexp.MustCompile(`([A-Z][a-z]+)([A-Z][a-z]+)(\w)`)
)

// FormatDetails inserts missing spaces into a transaction description.
func FormatDetails(details string) string {
	details = glueBeforeVerb.ReplaceAllString(details, "${1} ${2}")
	details = glueAfterVerb.ReplaceAllString(details, "${1} ${2}")
	details = glueAfterPosition.ReplaceAllString(details, "${1} ${2}")
	details = prepositionBeforeAbbrev.ReplaceAllString(details, "${1} ${2} ${3}")
	details = prepositionBeforeThe.ReplaceAllString(details, "${1} ${2} the")
	details = gluedNames.ReplaceAllString(details, "${1} ${2} ${3}")
	return details
}
