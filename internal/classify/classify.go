// Package classify maps raw feed categories and titles into the fixed
// set of display categories. Matching is keyword-set membership in a
// fixed priority order; the first matching rule wins.
package classify

import "strings"

// Category is one of the fixed display categories.
type Category string

const (
	Technology    Category = "Technology"
	Business      Category = "Business & Finance"
	Sports        Category = "Sports"
	Politics      Category = "Politics"
	Entertainment Category = "Entertainment"
	Science       Category = "Science"
	WorldNews     Category = "World News"
	IndiaNews     Category = "India News"
	LifeStyle     Category = "Life & Style"
	TopNews       Category = "Top News"
	General       Category = "General"
)

// Categories lists every display category, used for the direct-name
// match and by collaborators rendering category navigation.
var Categories = []Category{
	Technology, Business, Sports, Politics, Entertainment,
	Science, WorldNews, IndiaNews, LifeStyle, TopNews, General,
}

var technologyRaw = []string{"tech", "gadget", "internet", "software", "hardware", "ai", "artificial intelligence", "crypto", "digital", "startup", "app", "computing", "innovation", "programming", "data", "cloud", "cybersecurity", "mobile", "wearable", "vr", "ar"}

var technologyTitle = []string{" tech", "software", "hardware", " ai", " app ", "developer", "algorithm", "data breach", "cybersecurity", "platform", "online", "website", "user interface", "user experience", "gadget review", "latest smartphone", "coding language", "machine learning"}

var sportsRaw = []string{"sports", "cricket", "football", "soccer", "tennis", "ipl", "olympic", "nba", "mls", "esports", "f1", "motogp", "athletics", "badminton", "hockey", "rugby", "golf", "wrestling", "boxing", "formula 1", "e-sports", "gaming competition"}

var sportsTitle = []string{"cricket score", "ipl match", "football game", "tennis tournament", "olympic medal", "nba playoffs", "world cup qualifier", "grand slam event", "batsman", "bowler", "goal", "league table", "championship game", "fixture schedule", "match report", "final score", "athlete", "sports update", "team lineup"}

// Strong sports signals in a title override an otherwise-matched
// Technology classification.
var sportsTitleStrong = []string{"cricket", "ipl final", "football match", "tennis open", "olympic games", "nba championship", "world cup soccer", "grand prix racing"}

var businessRaw = []string{"business", "finance", "stock", "market", "economic", "economy", "compan", "industr", "bank", "invest", "corporate", "earnings", "ipo", "merger", "acquisition", "trade", "commerce", "financial", "nse", "bse", "sensex", "nifty", "cryptocurrency business"}

var businessTitle = []string{"sensex", "nifty", "ipo", "startup funding", "quarterly result", "profit", "loss", "gdp", "inflation", "interest rate", "budget", "fiscal policy", "monetary policy", "shares", "stocks", "commodities", "forex", "bull market", "bear market", "economic growth", "recession", "company shares", "market trends"}

var politicsRaw = []string{"politic", "election", "government", "parliament", "minister", "democracy", "legislature", "ballot", "campaign", "diplomacy", "geopolitics", "public policy", "political party"}

var politicsTitle = []string{"election result", "prime minister", "modi", "rahul gandhi", "parliament session", "bill passed", "policy debate", "international summit", "treaty negotiation", "geopolitical tension", "vote count", "political rally", "mp", "mla", "chief minister", "cabinet meeting", "government scheme"}

var entertainmentRaw = []string{"entertainment", "movie", "film", "music", "bollywood", "hollywood", "celebrity", "tv", "web series", "cinema", "arts", "culture", "showbiz", "box office", "gossip", "ott platform"}

var entertainmentTitle = []string{"box office collection", "movie review", "film trailer", "album release", "concert tour", "award ceremony", "actor interview", "actress lifestyle", "director announcement", "series finale date", "ott platform release", "celebrity news", "film release"}

var scienceRaw = []string{"science", "space", "health research", "scientific discover", "astronomy", "physics", "biology", "chemistry", "medicine research", "environment science", "archaeology", "paleontology", "innovation in science", "research article"}

var scienceTitle = []string{"nasa mission", "isro launch", "spacex flight", "mars rover", "black hole discovery", "clinical trial results", "vaccine development", "fossil find", "dinosaur era", "climate change report", "quantum computing breakthrough", "dna sequencing", "scientific breakthrough", "research paper", "new species"}

var worldRaw = []string{"world", "global", "international", "asia news", "europe news", "africa news", "america news", "un session", "nato meeting", "foreign affairs discussion", "international conflict"}

var worldTitle = []string{"war in", "global summit on", "international relations update", "united nations resolution", "conflict between", "treaty signing between", "foreign minister meets", "ukraine crisis", "middle east peace"}

var indiaRaw = []string{"india", "national", "delhi", "mumbai", "bengaluru", "kolkata", "chennai", "hyderabad", "pune", "state news", "indian affairs", "bharat", "indian government"}

var indiaTitle = []string{"india", "delhi", "mumbai", "bengaluru", "kolkata", "chennai", "hyderabad", "pune", "bharat"}

var lifestyleRaw = []string{"life", "style", "fashion", "food", "travel", "wellness", "horoscope", "recipe", "well-being", "home decor", "garden tips", "parenting advice", "relationships guide", "beauty trends", "health tips"}

var lifestyleTitle = []string{"fashion week highlights", "easy recipe for", "travel guide to", "yoga benefits", "meditation techniques", "daily zodiac forecast", "parenting hacks", "home makeover ideas", "latest beauty products", "healthy eating habits"}

var topNewsRaw = []string{"top stor", "latest news", "breaking news", "headlines"}

// A raw category that only says "news" carries no signal of its own,
// so lower-confidence title keywords are allowed to decide.
var genericCategoryMarkers = []string{"news", "general", "headlines", "top stor"}

var indiaMarkers = []string{"india", "bharat"}

// rule is one entry of the ordered classification table. Raw keywords
// match against the feed's category string; title keywords only apply
// when the raw category is generic, names one of the titleGates
// domains, or the rule is titleUngated.
type rule struct {
	category      Category
	rawKeywords   []string
	titleKeywords []string
	titleGates    []string
	titleUngated  bool
	rawExclude    func(rawCat, title string) bool
	titleExclude  func(rawCat, title string) bool
}

var rules = []rule{
	{
		category:      Technology,
		rawKeywords:   technologyRaw,
		titleKeywords: technologyTitle,
		titleUngated:  true,
		rawExclude: func(rawCat, title string) bool {
			return containsAny(title, sportsTitleStrong)
		},
		titleExclude: func(rawCat, title string) bool {
			return containsAny(title, sportsTitleStrong)
		},
	},
	{
		category:      Sports,
		rawKeywords:   sportsRaw,
		titleKeywords: sportsTitle,
		titleGates:    []string{"sport"},
		titleExclude: func(rawCat, title string) bool {
			return strings.Contains(title, "match") &&
				(containsAny(rawCat, technologyRaw) || containsAny(title, technologyTitle))
		},
	},
	{
		category:      Business,
		rawKeywords:   businessRaw,
		titleKeywords: businessTitle,
		titleGates:    []string{"business", "finance"},
	},
	{
		category:      Politics,
		rawKeywords:   politicsRaw,
		titleKeywords: politicsTitle,
		titleGates:    []string{"politic"},
	},
	{
		category:      Entertainment,
		rawKeywords:   entertainmentRaw,
		titleKeywords: entertainmentTitle,
		titleGates:    []string{"entertainment"},
		rawExclude: func(rawCat, title string) bool {
			return strings.Contains(rawCat, "lifestyle") &&
				(containsAny(rawCat, technologyRaw) || containsAny(rawCat, businessRaw))
		},
	},
	{
		category:      Science,
		rawKeywords:   scienceRaw,
		titleKeywords: scienceTitle,
		titleGates:    []string{"science"},
		rawExclude: func(rawCat, title string) bool {
			return strings.Contains(rawCat, "health") &&
				(containsAny(rawCat, businessRaw) || strings.Contains(rawCat, "market"))
		},
	},
	{
		category:      WorldNews,
		rawKeywords:   worldRaw,
		titleKeywords: worldTitle,
		titleUngated:  true,
		rawExclude: func(rawCat, title string) bool {
			return containsAny(rawCat, indiaMarkers)
		},
		titleExclude: func(rawCat, title string) bool {
			return containsAny(title, indiaMarkers) || containsAny(rawCat, indiaMarkers)
		},
	},
	{
		category:      IndiaNews,
		rawKeywords:   indiaRaw,
		titleKeywords: indiaTitle,
	},
	{
		category:      LifeStyle,
		rawKeywords:   lifestyleRaw,
		titleKeywords: lifestyleTitle,
		titleGates:    []string{"lifestyle"},
		rawExclude: func(rawCat, title string) bool {
			return containsAny(rawCat, technologyRaw) || containsAny(rawCat, businessRaw)
		},
		titleExclude: func(rawCat, title string) bool {
			return containsAny(title, technologyTitle) || containsAny(title, businessTitle)
		},
	},
	{
		category:    TopNews,
		rawKeywords: topNewsRaw,
	},
}

// Classify maps a raw feed category plus the article title onto a
// display category. The rule order and the exclusion rules are the
// classifier's correctness contract and must not be reordered.
func Classify(rawCategory, title string) Category {
	rawCat := strings.ToLower(rawCategory)
	lowerTitle := strings.ToLower(title)
	generic := rawCat == "" || containsAny(rawCat, genericCategoryMarkers)

	for _, r := range rules {
		if containsAny(rawCat, r.rawKeywords) {
			if r.rawExclude == nil || !r.rawExclude(rawCat, lowerTitle) {
				return r.category
			}
		}
		if len(r.titleKeywords) > 0 && containsAny(lowerTitle, r.titleKeywords) {
			if r.titleUngated || generic || containsAny(rawCat, r.titleGates) {
				if r.titleExclude == nil || !r.titleExclude(rawCat, lowerTitle) {
					return r.category
				}
			}
		}
	}

	for _, c := range Categories {
		if strings.ToLower(string(c)) == rawCat {
			return c
		}
	}

	return General
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}
