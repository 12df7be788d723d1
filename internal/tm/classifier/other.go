package classifier

// placementGainCards are cards whose tile produces a logged gain with the
// card name in parentheses.
var placementGainCards = []string{
	"Lava Flows", "Capital", "Ecological Zone", "Restricted Area", "Nuclear Zone",
	"Natural Preserve", "Mohole Area", "Industrial Center", "Commercial District",
}

// ClassifyOther refines a non-draw move into its other_* subtype. Purely
// additive reporting detail: it never affects draw/seen/played counters.
func ClassifyOther(description, actionType, nextDescription, next2Description, card, opponentName string) string {
	switch {
	case contains(description, "immediate effect of "+card):
		return "other_immediate_effect"
	case contains(description, "triggered effect of "+card):
		return "other_triggered_effect"
	case contains(description, "activates "+card):
		return "other_activate"
	case contains(description, "activation effect of "+card):
		return "other_activation_effect"
	case contains(description, "places "+card) || contains(description, "places tile "+card):
		return "other_place_card"
	case contains(description, "places City on "+card) || contains(description, "places tile City into "+card):
		return "other_place_city"
	case contains(description, "copies production box of "+card):
		return "other_copy_production_box"
	case contains(description, "removes Microbe from "+card):
		return "other_remove_microbe"
	case contains(description, "removes Animal from "+card):
		return "other_remove_animal"
	case contains(description, "adds Microbe to "+card):
		return "other_add_microbe"
	case contains(description, "adds Animal to "+card):
		return "other_add_animal"
	case contains(description, "moves Resource into "+card):
		return "other_move_resource"
	case opponentName != "" && contains(description, opponentName+" plays card "+card):
		return "other_opponent_play"
	case contains(description, "(Lava Flows)") && actionType == "place_tile" && card == "Lava Flows":
		return "other_place_lava_and_ocean"
	case isPlacementGain(description, card):
		return "other_place_gain"
	case contains(description, "scores"):
		return "other_scoring"
	case contains(description, "adds Science to"):
		return "other_add_science"
	case contains(description, "removes Science from"):
		return "other_remove_science"
	case contains(nextDescription, "undoes"):
		return "other_takeback_undo"
	case contains(description, "draws 10 cards"):
		return "other_starting_hand"
	case contains(nextDescription, "takes back their move") || contains(next2Description, "You buy "+card):
		switch {
		case contains(description, "You choose corporation"):
			return "other_takeback_start"
		case actionType == "draft_card":
			return "other_takeback_draft"
		case contains(description, "You buy"):
			return "other_takeback_buy"
		}
		return "other_takeback"
	case contains(nextDescription, "You choose corporation"):
		return "other_takeback_start"
	case contains(description, "You draft"):
		return "other_takeback_draft"
	}
	return "other"
}

func isPlacementGain(description, card string) bool {
	for _, name := range placementGainCards {
		if card == name && contains(description, "("+name+")") {
			return true
		}
	}
	return false
}
