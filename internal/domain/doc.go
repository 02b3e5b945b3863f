// Package domain models itinerary locations and the coordinates resolved for them.
//
// # Input
//
// Itinerary nodes arrive from the itinerary provider as flat JSON records. The
// resolver reads only six fields per node:
//
//	{"node_id", "title", "location_name", "destination_hint", "existing_lat", "existing_lng"}
//
// location_name is free text written by a traveller or a trip planner, e.g.
// "Red Fort", "Lunch", "Hotel Check-in". destination_hint names the city the
// node belongs to ("Agra", "Paris, France"); when a node has no hint the
// itinerary-level destination is used instead. See [ItineraryNode.ToRequest].
//
// # Confidence
//
// Every [LocationRequest] yields exactly one [ResolvedCoordinate]. Resolution
// never fails; it degrades:
//
//	exact        coordinates supplied with the node
//	approximate  geocoded venue
//	city         city center of the destination (gazetteer or one-off geocode)
//	fallback     configured geographic center, nothing better was known
//
// The [Strategy] tag records which resolution tier produced the value.
//
// # Classification
//
// Geocoding is the only paid operation, so names are classified before any
// call is made (see [Classify]):
//
//	generic   meals, lodging, vague areas, time fillers: "Breakfast", "Free Afternoon"
//	specific  landmark keyword ("museum", "fort", ...), longer than 15 runes,
//	          or a multi-word proper name ("Taj Mahal")
//	vague     anything else; resolved to the city center without a venue geocode
//
// # Normalisation
//
// Cache keys and gazetteer lookups use [Normalize]: accents removed, case
// folded, surrounding space trimmed and inner whitespace collapsed, so
// "  Café  de Flore" and "cafe de flore" share a key.
package domain
