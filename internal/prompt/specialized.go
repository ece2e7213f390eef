package prompt

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindItinerary       Kind = "itinerary"
	KindFlights         Kind = "flights"
	KindRecommendations Kind = "recommendations"
)

// Placeholders rendered for optional fields the caller left empty.
const (
	placeholderDuration      = "not specified"
	placeholderBudget        = "flexible"
	placeholderInterests     = "general sightseeing"
	placeholderAccommodation = "mid-range"
	placeholderOrigin        = "unspecified location"
	placeholderDeparture     = "flexible"
	placeholderReturn        = "open-ended"
	placeholderFlightClass   = "economy"
	placeholderQuery         = "Tell me about Sabah"
)

const fallbackPrompt = "Tell me about the wonderful destinations and experiences available in Sabah, Malaysia."

// Request is a set of planning parameters for one of the fixed templates.
type Request interface {
	Kind() Kind
}

type ItineraryParams struct {
	Duration      string
	Budget        string
	Interests     []string
	Accommodation string
	GroupSize     int
}

func (ItineraryParams) Kind() Kind { return KindItinerary }

type FlightParams struct {
	Origin        string
	DepartureDate string
	ReturnDate    string
	Passengers    int
	FlightClass   string
}

func (FlightParams) Kind() Kind { return KindFlights }

type RecommendationParams struct {
	Query     string
	Interests []string
	Budget    string
	Duration  string
}

func (RecommendationParams) Kind() Kind { return KindRecommendations }

// Specialized renders the template matching req's kind.
func Specialized(req Request) string {
	switch p := req.(type) {
	case ItineraryParams:
		return Itinerary(p)
	case *ItineraryParams:
		return Itinerary(*p)
	case FlightParams:
		return Flights(p)
	case *FlightParams:
		return Flights(*p)
	case RecommendationParams:
		return Recommendations(p)
	case *RecommendationParams:
		return Recommendations(*p)
	default:
		return fallbackPrompt
	}
}

func Itinerary(p ItineraryParams) string {
	interests := placeholderInterests
	if len(p.Interests) > 0 {
		interests = strings.Join(p.Interests, ", ")
	}
	groupSize := p.GroupSize
	if groupSize <= 0 {
		groupSize = 1
	}

	return fmt.Sprintf(`Create a detailed travel itinerary for Sabah, Malaysia with the following specifications:

Duration: %s
Budget: MYR %s
Interests: %s
Accommodation Style: %s
Group Size: %d people

Please provide:
1. Day-by-day detailed itinerary
2. Estimated costs for major expenses
3. Transportation recommendations between locations
4. Accommodation suggestions for each area
5. Must-try local foods and recommended restaurants
6. Important tips and considerations
7. Alternative options based on weather or availability

Make it practical, engaging, and tailored to the specified interests and budget.`,
		orDefault(p.Duration, placeholderDuration),
		orDefault(p.Budget, placeholderBudget),
		interests,
		orDefault(p.Accommodation, placeholderAccommodation),
		groupSize,
	)
}

func Flights(p FlightParams) string {
	passengers := p.Passengers
	if passengers <= 0 {
		passengers = 1
	}

	return fmt.Sprintf(`Provide flight recommendations for travel to Kota Kinabalu, Sabah from %s:

Departure Date: %s
Return Date: %s
Passengers: %d
Class: %s

Please include:
1. Major airlines that serve this route
2. Typical flight duration and connections
3. Estimated price ranges (mention these are approximate)
4. Best booking platforms or travel agencies
5. Tips for getting better deals
6. Best times to fly (seasonality considerations)
7. Airport information (Kota Kinabalu International Airport details)

Important: Emphasize that prices and availability change frequently, and users should check directly with airlines or travel booking sites for current information.`,
		orDefault(p.Origin, placeholderOrigin),
		orDefault(p.DepartureDate, placeholderDeparture),
		orDefault(p.ReturnDate, placeholderReturn),
		passengers,
		orDefault(p.FlightClass, placeholderFlightClass),
	)
}

func Recommendations(p RecommendationParams) string {
	var ctx strings.Builder
	fmt.Fprintf(&ctx, "User query: %s\n", orDefault(p.Query, placeholderQuery))
	if len(p.Interests) > 0 {
		fmt.Fprintf(&ctx, "User interests: %s\n", strings.Join(p.Interests, ", "))
	}
	if p.Budget != "" {
		fmt.Fprintf(&ctx, "Budget consideration: %s\n", p.Budget)
	}
	if p.Duration != "" {
		fmt.Fprintf(&ctx, "Trip duration: %s\n", p.Duration)
	}

	return fmt.Sprintf(`As an expert Sabah travel guide, please answer this travel question with detailed, practical advice:

%s

Provide comprehensive, helpful information that includes:
- Specific recommendations tailored to the query
- Practical tips and insider knowledge
- Cost considerations where relevant
- Best times to visit or experience what's asked about
- Any important cultural or practical considerations
- Alternative suggestions if applicable

Be conversational, enthusiastic, and provide actionable advice.`, ctx.String())
}

// Summary asks for a one-sentence summary of an attraction description.
func Summary(text string) string {
	return "Summarize the following tourist attraction description in one concise sentence:\n" + text
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
