package timezone

// deltaRange maps a narrow band of peak-hour shifts (modal UTC activity
// hour minus the assumed local peak, mod 24) to one representative zone.
// The bands deliberately do not tile the full 0-23 space: a shift outside
// every band means the activity signal alone cannot place the contact,
// and inference falls back to the caller's default.
type deltaRange struct {
	lo   int
	hi   int
	zone string
}

var deltaZones = []deltaRange{
	{2, 4, "America/New_York"},     // peak 13:00-15:00 UTC
	{6, 8, "America/Los_Angeles"},  // peak 17:00-19:00 UTC
	{14, 16, "Asia/Singapore"},     // peak 01:00-03:00 UTC
	{17, 19, "Asia/Kolkata"},       // peak 04:00-06:00 UTC
	{20, 22, "Europe/London"},      // peak 07:00-09:00 UTC
}

func zoneForDelta(delta int) (string, bool) {
	for _, r := range deltaZones {
		if delta >= r.lo && delta <= r.hi {
			return r.zone, true
		}
	}
	return "", false
}

// cityEntry pairs a lowercase substring pattern with its zone. Order
// matters: more specific patterns come before shorter ones they contain,
// and matching scans top to bottom so results are deterministic.
type cityEntry struct {
	pattern string
	zone    string
}

// cityZones is the curated location table. Extend it with new rows; the
// matching logic never changes.
var cityZones = []cityEntry{
	// US cities
	{"new york", "America/New_York"},
	{"nyc", "America/New_York"},
	{"brooklyn", "America/New_York"},
	{"boston", "America/New_York"},
	{"washington", "America/New_York"},
	{"miami", "America/New_York"},
	{"atlanta", "America/New_York"},
	{"philadelphia", "America/New_York"},
	{"chicago", "America/Chicago"},
	{"houston", "America/Chicago"},
	{"dallas", "America/Chicago"},
	{"austin", "America/Chicago"},
	{"denver", "America/Denver"},
	{"phoenix", "America/Phoenix"},
	{"san francisco", "America/Los_Angeles"},
	{"los angeles", "America/Los_Angeles"},
	{"san diego", "America/Los_Angeles"},
	{"seattle", "America/Los_Angeles"},
	{"portland", "America/Los_Angeles"},

	// UK and Europe
	{"london", "Europe/London"},
	{"manchester", "Europe/London"},
	{"united kingdom", "Europe/London"},
	{"england", "Europe/London"},
	{"paris", "Europe/Paris"},
	{"france", "Europe/Paris"},
	{"berlin", "Europe/Berlin"},
	{"munich", "Europe/Berlin"},
	{"germany", "Europe/Berlin"},

	// South and Southeast Asia
	{"mumbai", "Asia/Kolkata"},
	{"delhi", "Asia/Kolkata"},
	{"bangalore", "Asia/Kolkata"},
	{"bengaluru", "Asia/Kolkata"},
	{"kolkata", "Asia/Kolkata"},
	{"india", "Asia/Kolkata"},
	{"singapore", "Asia/Singapore"},

	// East Asia
	{"shanghai", "Asia/Shanghai"},
	{"beijing", "Asia/Shanghai"},
	{"shenzhen", "Asia/Shanghai"},
	{"china", "Asia/Shanghai"},
	{"tokyo", "Asia/Tokyo"},
	{"osaka", "Asia/Tokyo"},
	{"japan", "Asia/Tokyo"},

	// Australia
	{"sydney", "Australia/Sydney"},
	{"melbourne", "Australia/Melbourne"},
	{"brisbane", "Australia/Brisbane"},
	{"australia", "Australia/Sydney"},

	// Locale codes the platform hands through when no city is set.
	{"en_gb", "Europe/London"},
	{"fr_fr", "Europe/Paris"},
	{"de_de", "Europe/Berlin"},
	{"hi_in", "Asia/Kolkata"},
	{"zh_cn", "Asia/Shanghai"},
	{"ja_jp", "Asia/Tokyo"},
}
