// Package presets holds the static category configuration: the mapping
// from preset keys to canned Places API search queries, the Google place
// type remap table, and the per-category mismatch filters. Resolved once
// at compile time; the rest of the system only consumes these tables.
package presets

// Template is one canned search query belonging to a preset
type Template struct {
	Query     string
	Category  string
	PlaceType string // optional nearby-search type filter, empty when none applies
}

// Categories maps preset keys to their search query templates
var Categories = map[string][]Template{
	// Primary (always visible in the UI)
	"restaurant": {
		{Query: "restaurant", Category: "Restaurant", PlaceType: "restaurant"},
		{Query: "cafe", Category: "Restaurant", PlaceType: "cafe"},
		{Query: "bar", Category: "Restaurant", PlaceType: "bar"},
	},
	"coffee-shops": {
		{Query: "coffee shop", Category: "Coffee Shops", PlaceType: "cafe"},
		{Query: "cafe", Category: "Coffee Shops", PlaceType: "cafe"},
	},
	"hotel": {
		{Query: "hotel", Category: "Hotel", PlaceType: "lodging"},
		{Query: "resort", Category: "Hotel"},
	},
	"guest-house": {
		{Query: "guest house", Category: "Guest House"},
		{Query: "homestay", Category: "Guest House"},
		{Query: "hostel", Category: "Guest House"},
		{Query: "villa", Category: "Guest House"},
		{Query: "bungalow", Category: "Guest House"},
	},
	"things-to-do": {
		{Query: "things to do", Category: "Things To Do"},
		{Query: "tourist attraction", Category: "Things To Do", PlaceType: "tourist_attraction"},
	},
	"nightlife": {
		{Query: "nightclub", Category: "Nightlife", PlaceType: "night_club"},
		{Query: "bar", Category: "Nightlife", PlaceType: "bar"},
		{Query: "lounge", Category: "Nightlife"},
	},
	"spa-beauty": {
		{Query: "spa", Category: "Spa & Beauty", PlaceType: "spa"},
		{Query: "beauty salon", Category: "Spa & Beauty", PlaceType: "beauty_salon"},
		{Query: "hair salon", Category: "Spa & Beauty", PlaceType: "hair_care"},
	},
	"gym-fitness": {
		{Query: "gym", Category: "Gym & Fitness", PlaceType: "gym"},
		{Query: "fitness center", Category: "Gym & Fitness"},
	},
	"shopping": {
		{Query: "shopping", Category: "Shopping", PlaceType: "shopping_mall"},
		{Query: "market", Category: "Shopping"},
		{Query: "store", Category: "Shopping", PlaceType: "store"},
	},
	"health": {
		{Query: "hospital", Category: "Health & Medical", PlaceType: "hospital"},
		{Query: "clinic", Category: "Health & Medical"},
		{Query: "pharmacy", Category: "Health & Medical", PlaceType: "pharmacy"},
	},
	"real-estate": {
		{Query: "real estate agency", Category: "Real Estate", PlaceType: "real_estate_agency"},
		{Query: "real estate agent", Category: "Real Estate", PlaceType: "real_estate_agency"},
		{Query: "property management", Category: "Real Estate"},
	},
	"coworking": {
		{Query: "coworking space", Category: "Coworking"},
		{Query: "coworking", Category: "Coworking"},
	},

	// Secondary (behind "show more")
	"dentist": {
		{Query: "dentist", Category: "Dentist", PlaceType: "dentist"},
		{Query: "dental clinic", Category: "Dentist", PlaceType: "dentist"},
	},
	"veterinary": {
		{Query: "veterinarian", Category: "Veterinary", PlaceType: "veterinary_care"},
		{Query: "animal hospital", Category: "Veterinary", PlaceType: "veterinary_care"},
	},
	"car-services": {
		{Query: "car repair", Category: "Car Services", PlaceType: "car_repair"},
		{Query: "car wash", Category: "Car Services", PlaceType: "car_wash"},
		{Query: "car rental", Category: "Car Services", PlaceType: "car_rental"},
	},
	"supermarket": {
		{Query: "supermarket", Category: "Supermarket", PlaceType: "supermarket"},
		{Query: "grocery store", Category: "Supermarket", PlaceType: "convenience_store"},
	},
	"bank": {
		{Query: "bank", Category: "Bank & ATM", PlaceType: "bank"},
		{Query: "atm", Category: "Bank & ATM", PlaceType: "atm"},
	},
	"pharmacy": {
		{Query: "pharmacy", Category: "Pharmacy", PlaceType: "pharmacy"},
		{Query: "drugstore", Category: "Pharmacy"},
	},
	"education": {
		{Query: "school", Category: "School & Education", PlaceType: "school"},
		{Query: "university", Category: "School & Education", PlaceType: "university"},
		{Query: "language school", Category: "School & Education"},
	},
	"yoga-pilates": {
		{Query: "yoga studio", Category: "Yoga & Pilates"},
		{Query: "pilates studio", Category: "Yoga & Pilates"},
	},
	"laundry": {
		{Query: "laundry", Category: "Laundry", PlaceType: "laundry"},
		{Query: "dry cleaning", Category: "Laundry"},
	},
	"pet-store": {
		{Query: "pet store", Category: "Pet Store", PlaceType: "pet_store"},
		{Query: "pet shop", Category: "Pet Store", PlaceType: "pet_store"},
	},
	"electronics": {
		{Query: "electronics store", Category: "Electronics", PlaceType: "electronics_store"},
		{Query: "phone repair", Category: "Electronics"},
	},
	"furniture-home": {
		{Query: "furniture store", Category: "Furniture & Home", PlaceType: "furniture_store"},
		{Query: "home goods store", Category: "Furniture & Home", PlaceType: "home_goods_store"},
	},
	"travel-agency": {
		{Query: "travel agency", Category: "Travel Agency", PlaceType: "travel_agency"},
		{Query: "tour operator", Category: "Travel Agency"},
	},
	"barbershop": {
		{Query: "barbershop", Category: "Barbershop", PlaceType: "hair_care"},
		{Query: "barber", Category: "Barbershop", PlaceType: "hair_care"},
	},
	"physiotherapy": {
		{Query: "physiotherapist", Category: "Physiotherapy", PlaceType: "physiotherapist"},
		{Query: "physical therapy", Category: "Physiotherapy", PlaceType: "physiotherapist"},
	},
}

// PrimaryKeys lists preset keys shown by default, in display order
var PrimaryKeys = []string{
	"restaurant", "coffee-shops", "hotel", "guest-house", "things-to-do",
	"nightlife", "spa-beauty", "gym-fitness", "shopping", "health",
	"real-estate", "coworking",
}

// SecondaryKeys lists preset keys behind the "show more" toggle
var SecondaryKeys = []string{
	"dentist", "veterinary", "car-services", "supermarket", "bank",
	"pharmacy", "education", "yoga-pilates", "laundry", "pet-store",
	"electronics", "furniture-home", "travel-agency", "barbershop",
	"physiotherapy",
}

// DefaultKeys are the presets pre-selected in a fresh UI
var DefaultKeys = []string{"restaurant", "coffee-shops", "hotel", "things-to-do", "spa-beauty"}

// GoogleTypeToCategory re-categorizes businesses based on what Google
// actually classifies them as, preferred over the search preset's label.
var GoogleTypeToCategory = map[string]string{
	"restaurant":         "Restaurant",
	"cafe":               "Restaurant",
	"bar":                "Restaurant",
	"food":               "Restaurant",
	"bakery":             "Restaurant",
	"meal_delivery":      "Restaurant",
	"meal_takeaway":      "Restaurant",
	"tourist_attraction": "Things To Do",
	"amusement_park":     "Things To Do",
	"aquarium":           "Things To Do",
	"art_gallery":        "Things To Do",
	"museum":             "Things To Do",
	"park":               "Things To Do",
	"zoo":                "Things To Do",
	"spa":                "Spa & Beauty",
	"beauty_salon":       "Spa & Beauty",
	"hair_care":          "Spa & Beauty",
	"lodging":            "Hotel",
	"night_club":         "Nightlife",
	"gym":                "Gym & Fitness",
	"shopping_mall":      "Shopping",
	"store":              "Shopping",
	"clothing_store":     "Shopping",
	"supermarket":        "Supermarket",
	"convenience_store":  "Supermarket",
	"hospital":           "Health & Medical",
	"pharmacy":           "Pharmacy",
	"doctor":             "Health & Medical",
	"dentist":            "Dentist",
	"health":             "Health & Medical",
	"drugstore":          "Pharmacy",
	"real_estate_agency": "Real Estate",
	"car_repair":         "Car Services",
	"car_wash":           "Car Services",
	"car_rental":         "Car Services",
	"car_dealer":         "Car Services",
	"bank":               "Bank & ATM",
	"atm":                "Bank & ATM",
	"school":             "School & Education",
	"university":         "School & Education",
	"primary_school":     "School & Education",
	"secondary_school":   "School & Education",
	"veterinary_care":    "Veterinary",
	"laundry":            "Laundry",
	"pet_store":          "Pet Store",
	"electronics_store":  "Electronics",
	"furniture_store":    "Furniture & Home",
	"home_goods_store":   "Furniture & Home",
	"travel_agency":      "Travel Agency",
	"physiotherapist":    "Physiotherapy",
}

// CategoryExcludeTypes lists Google types that disqualify a business from
// a category unless one of its types also matches that category. Keeps
// hotels out of restaurant results and vice versa.
var CategoryExcludeTypes = map[string]map[string]bool{
	"Gym & Fitness": toSet("spa", "beauty_salon", "hair_care", "yoga_studio", "travel_agency",
		"lodging", "restaurant", "cafe", "bar", "food"),
	"Spa & Beauty":   toSet("gym", "restaurant", "cafe", "bar", "food", "lodging"),
	"Restaurant":     toSet("lodging", "gym", "spa"),
	"Hotel":          toSet("restaurant", "cafe", "bar", "food", "gym", "spa"),
	"Guest House":    toSet("restaurant", "cafe", "bar", "food", "gym", "spa"),
	"Yoga & Pilates": toSet("gym", "restaurant", "cafe", "bar", "lodging"),
	"Barbershop":     toSet("spa", "beauty_salon", "restaurant", "cafe"),
}

func toSet(types ...string) map[string]bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// ResolveCategory determines the best category label from Google's actual
// place types, falling back to the search preset's label when none match.
func ResolveCategory(googleTypes []string, fallback string) string {
	for _, gtype := range googleTypes {
		if mapped, ok := GoogleTypeToCategory[gtype]; ok {
			return mapped
		}
	}
	return fallback
}

// ExpectedTypes returns the set of Google types that legitimately belong
// to a category.
func ExpectedTypes(category string) map[string]bool {
	expected := make(map[string]bool)
	for gtype, cat := range GoogleTypeToCategory {
		if cat == category {
			expected[gtype] = true
		}
	}
	return expected
}

// DisplayLabel returns the category label for a preset key
func DisplayLabel(key string) string {
	if templates, ok := Categories[key]; ok && len(templates) > 0 {
		return templates[0].Category
	}
	return ""
}

// Listing is the read-only preset description served to the front end
type Listing struct {
	Label   string   `json:"label"`
	Queries []string `json:"queries"`
	Primary bool     `json:"primary"`
	Default bool     `json:"default"`
}

// List returns all presets keyed by preset key, plus the display order
// (primary presets first, each group in declared order)
func List() (map[string]Listing, []string) {
	primary := toSet(PrimaryKeys...)
	defaults := toSet(DefaultKeys...)

	listing := make(map[string]Listing, len(Categories))
	for key, templates := range Categories {
		queries := make([]string, len(templates))
		for i, t := range templates {
			queries[i] = t.Query
		}
		listing[key] = Listing{
			Label:   templates[0].Category,
			Queries: queries,
			Primary: primary[key],
			Default: defaults[key],
		}
	}

	order := make([]string, 0, len(Categories))
	order = append(order, PrimaryKeys...)
	order = append(order, SecondaryKeys...)
	return listing, order
}
