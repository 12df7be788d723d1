// Package patterns is the fixed catalog of text fragments the move
// classifier matches against: the draw/buy mechanism label sets and the
// table of card names that contain another card's name as a substring.
// Pure data plus lookup helpers; the classifier's control flow never needs
// to change to extend these tables.
package patterns

import (
	"regexp"
	"strings"
)

// FreeDrawMethods are the labels that put the card in hand without paying
// for it. Membership drives the draw_free histogram and the
// play-to-draw-for-free rate.
var FreeDrawMethods = []string{
	"draw", "draw_ai_central", "draw_convoy_from_europa", "draw_development_center",
	"draw_lagrange_observatory", "draw_large_convoy", "draw_mars_university",
	"draw_martian_survey", "draw_olympus_conference", "draw_placement",
	"draw_placement_23_Ascraeus", "draw_placement_58", "draw_placement_61",
	"draw_placement_68", "draw_placement_82", "draw_point_luna", "draw_research",
	"draw_sf_memorial", "draw_technology_demonstration", "draw_inventrix",
	"draw_prelude_biolabs", "draw_prelude_io_research_outpost",
	"draw_prelude_research_network", "draw_prelude_unmi_contractor",
	"draw_reveal_plant_tag", "draw_reveal_space_tag",
}

// BuyMethods are the labels where the card reached the hand through a
// payment (draft buy or a card-triggered buy).
var BuyMethods = []string{
	"draw_business_network_buy", "draw_inventors_guild_buy", "draw_draft_buy",
}

// Confusables maps a card name to the printed names of other cards that
// contain it as a substring. A mention of the longer name must not be
// attributed to the shorter card.
var Confusables = map[string][]string{
	"Algae":  {"Arctic Algae"},
	"Moss":   {"Nitrophilic Moss"},
	"Mine":   {"Strip Mine", "Titanium Mine"},
	"Comet":  {"Towing a Comet"},
	"Lichen": {"Adapted Lichen"},
	"Asteroid": {
		"Asteroid Mining", "Ammonia Asteroid", "Big Asteroid", "Thorium Asteroid",
		"Ice Asteroid", "pays 14 (Asteroid)", "Rich Asteroid",
		"standard project Asteroid", "Huge Asteroid",
	},
	"Asteroid Mining":  {"Asteroid Mining Consortium"},
	"Ice Asteroid":     {"Giant Ice Asteroid"},
	"Farming":          {"Kelp Farming", "Noctis Farming", "Tundra Farming", "Dome Farming"},
	"Research":         {"Research Coordination", "Research Outpost", "Research draft", "Research Network"},
	"Research Outpost": {"Io Research Outpost"},
	"Shuttles":         {"Immigration Shuttles"},
}

var freeDrawSet = toSet(FreeDrawMethods)
var buySet = toSet(BuyMethods)

func toSet(labels []string) map[string]struct{} {
	s := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}
	return s
}

// IsFreeDrawMethod reports whether label is a free draw mechanism.
func IsFreeDrawMethod(label string) bool {
	_, ok := freeDrawSet[label]
	return ok
}

// IsBuyMethod reports whether label is a buy mechanism.
func IsBuyMethod(label string) bool {
	_, ok := buySet[label]
	return ok
}

// "Minera", "Miners" etc. also collide with the Mine card.
var mineSuffixRe = regexp.MustCompile(`Mine[a-z]`)

// StripConfusables removes every confusable card name for card from the
// description, so a remaining occurrence of card is a genuine mention.
func StripConfusables(description, card string) string {
	if description == "" {
		return description
	}
	if conflicts, ok := Confusables[card]; ok {
		for _, c := range conflicts {
			description = strings.ReplaceAll(description, c, "")
		}
	}
	if card == "Mine" {
		description = mineSuffixRe.ReplaceAllString(description, "")
	}
	return description
}

// WrongAttribution reports whether a description that superficially
// mentions card does not actually concern it: after stripping confusable
// names and any player name that itself contains the card name, the card
// name no longer appears.
func WrongAttribution(card, description, perspectiveName, opponentName string) bool {
	cleaned := StripConfusables(description, card)

	for _, name := range []string{perspectiveName, opponentName} {
		if name != "" && strings.Contains(name, card) {
			cleaned = strings.ReplaceAll(cleaned, name, "")
		}
	}

	return !strings.Contains(cleaned, card)
}
