package domain

import "strings"

// Gazetteer is a read-only table of city-center coordinates keyed by
// normalised city name. It is safe for concurrent use.
type Gazetteer struct {
	cities map[string]Geo
}

// NewGazetteer builds a gazetteer from the given entries. Keys are normalised.
func NewGazetteer(entries map[string]Geo) *Gazetteer {
	cities := make(map[string]Geo, len(entries))
	for name, geo := range entries {
		cities[Normalize(name)] = geo
	}
	return &Gazetteer{cities: cities}
}

// DefaultGazetteer returns a gazetteer seeded with major travel destinations.
func DefaultGazetteer() *Gazetteer {
	return NewGazetteer(defaultCities)
}

// Lookup returns the city center for city. Matching is exact on the
// normalised name; a "City, Country" destination also matches on its first
// segment.
func (g *Gazetteer) Lookup(city string) (Geo, bool) {
	if g == nil {
		return Geo{}, false
	}
	key := Normalize(city)
	if key == "" {
		return Geo{}, false
	}
	if geo, ok := g.cities[key]; ok {
		return geo, true
	}
	if head, _, found := strings.Cut(key, ","); found {
		geo, ok := g.cities[strings.TrimSpace(head)]
		return geo, ok
	}
	return Geo{}, false
}

// Len returns the number of cities in the table.
func (g *Gazetteer) Len() int {
	if g == nil {
		return 0
	}
	return len(g.cities)
}

var defaultCities = map[string]Geo{
	// India
	"Agra":      {Lat: 27.1767, Lng: 78.0081},
	"Delhi":     {Lat: 28.6139, Lng: 77.2090},
	"New Delhi": {Lat: 28.6139, Lng: 77.2090},
	"Mumbai":    {Lat: 19.0760, Lng: 72.8777},
	"Jaipur":    {Lat: 26.9124, Lng: 75.7873},
	"Udaipur":   {Lat: 24.5854, Lng: 73.7125},
	"Varanasi":  {Lat: 25.3176, Lng: 82.9739},
	"Goa":       {Lat: 15.2993, Lng: 74.1240},
	"Bangalore": {Lat: 12.9716, Lng: 77.5946},
	"Chennai":   {Lat: 13.0827, Lng: 80.2707},
	"Kolkata":   {Lat: 22.5726, Lng: 88.3639},

	// Europe
	"Paris":     {Lat: 48.8566, Lng: 2.3522},
	"London":    {Lat: 51.5074, Lng: -0.1278},
	"Rome":      {Lat: 41.9028, Lng: 12.4964},
	"Barcelona": {Lat: 41.3874, Lng: 2.1686},
	"Madrid":    {Lat: 40.4168, Lng: -3.7038},
	"Amsterdam": {Lat: 52.3676, Lng: 4.9041},
	"Berlin":    {Lat: 52.5200, Lng: 13.4050},
	"Prague":    {Lat: 50.0755, Lng: 14.4378},
	"Vienna":    {Lat: 48.2082, Lng: 16.3738},
	"Lisbon":    {Lat: 38.7223, Lng: -9.1393},
	"Athens":    {Lat: 37.9838, Lng: 23.7275},
	"Istanbul":  {Lat: 41.0082, Lng: 28.9784},
	"Venice":    {Lat: 45.4408, Lng: 12.3155},
	"Florence":  {Lat: 43.7696, Lng: 11.2558},
	"Zurich":    {Lat: 47.3769, Lng: 8.5417},
	"Dublin":    {Lat: 53.3498, Lng: -6.2603},
	"Edinburgh": {Lat: 55.9533, Lng: -3.1883},

	// Americas
	"New York":       {Lat: 40.7128, Lng: -74.0060},
	"Los Angeles":    {Lat: 34.0522, Lng: -118.2437},
	"San Francisco":  {Lat: 37.7749, Lng: -122.4194},
	"Las Vegas":      {Lat: 36.1699, Lng: -115.1398},
	"Chicago":        {Lat: 41.8781, Lng: -87.6298},
	"Miami":          {Lat: 25.7617, Lng: -80.1918},
	"Toronto":        {Lat: 43.6532, Lng: -79.3832},
	"Mexico City":    {Lat: 19.4326, Lng: -99.1332},
	"Cancún":         {Lat: 21.1619, Lng: -86.8515},
	"Rio de Janeiro": {Lat: -22.9068, Lng: -43.1729},
	"Buenos Aires":   {Lat: -34.6037, Lng: -58.3816},
	"Lima":           {Lat: -12.0464, Lng: -77.0428},

	// Asia, Middle East, Africa, Oceania
	"Tokyo":     {Lat: 35.6762, Lng: 139.6503},
	"Kyoto":     {Lat: 35.0116, Lng: 135.7681},
	"Seoul":     {Lat: 37.5665, Lng: 126.9780},
	"Beijing":   {Lat: 39.9042, Lng: 116.4074},
	"Shanghai":  {Lat: 31.2304, Lng: 121.4737},
	"Hong Kong": {Lat: 22.3193, Lng: 114.1694},
	"Singapore": {Lat: 1.3521, Lng: 103.8198},
	"Bangkok":   {Lat: 13.7563, Lng: 100.5018},
	"Bali":      {Lat: -8.3405, Lng: 115.0920},
	"Kathmandu": {Lat: 27.7172, Lng: 85.3240},
	"Dubai":     {Lat: 25.2048, Lng: 55.2708},
	"Cairo":     {Lat: 30.0444, Lng: 31.2357},
	"Marrakech": {Lat: 31.6295, Lng: -7.9811},
	"Cape Town": {Lat: -33.9249, Lng: 18.4241},
	"Sydney":    {Lat: -33.8688, Lng: 151.2093},
	"Melbourne": {Lat: -37.8136, Lng: 144.9631},
}
