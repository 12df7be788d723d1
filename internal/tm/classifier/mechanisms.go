package classifier

import "regexp"

// mechanismRule is one entry of the named-mechanism table: a trigger
// phrase that must appear somewhere in the window, optional co-occurrence
// constraints on the focal description, and the resulting label. Entries
// are evaluated strictly in table order; the first satisfied entry wins.
type mechanismRule struct {
	trigger   string         // phrase searched across the window
	triggerRe *regexp.Regexp // regex alternative to trigger
	altPhrase string         // second phrase that also satisfies the trigger

	actions   []string // trigger must co-occur with one of these action tags
	headLimit int      // restrict trigger search to the first N positions (0 = whole window)

	requireCurrent []string // phrases the focal description must contain
	excludeCurrent []string // phrases the focal description must not contain

	label string
	// variant overrides label when set (used where the resulting label
	// depends on the analyzed card).
	variant func(c *ruleCtx) string
}

// mechanismRules covers the named in-game card-draw mechanisms and the
// board coordinates whose tile placement grants a card.
var mechanismRules = []mechanismRule{
	{trigger: "plays card UNMI Contractor", actions: []string{"play_card"}, headLimit: 3,
		label: "draw_prelude_unmi_contractor"},
	{trigger: "plays card Io Research Outpost", actions: []string{"play_card"}, headLimit: 3,
		label: "draw_prelude_io_research_outpost"},
	{trigger: "activates AI Central", actions: []string{"activate_card", "pass"},
		requireCurrent: []string{"draws 2 cards"}, label: "draw_ai_central"},
	{trigger: "activates Restricted Area", actions: []string{"activate_card", "pass"},
		excludeCurrent: []string{"draws 2 cards", "activates Development Center"},
		label:          "draw_restricted_area"},
	{trigger: "activates Development Center", actions: []string{"activate_card", "pass"},
		excludeCurrent: []string{"draws 2 cards"}, label: "draw_development_center"},
	{trigger: "plays card SF Memorial", label: "draw_sf_memorial"},
	{trigger: "plays card Convoy From Europa", label: "draw_convoy_from_europa"},
	{trigger: "plays card Large Convoy", requireCurrent: []string{"draws 2 cards"},
		label: "draw_large_convoy"},
	{trigger: "plays card Research", requireCurrent: []string{"draws 2 cards"},
		variant: func(c *ruleCtx) string {
			// Research drawing Research is the play itself, not a draw.
			if c.in.Card == "Research" {
				return LabelOther
			}
			return "draw_research"
		}},
	{trigger: "plays card Lagrange Observatory", label: "draw_lagrange_observatory"},
	{trigger: "plays card Martian Survey", label: "draw_martian_survey"},
	{trigger: "plays card Technology Demonstration", label: "draw_technology_demonstration"},
	{trigger: "removes Science from Olympus Conference",
		excludeCurrent: []string{"draws 2 cards", "You keep"}, label: "draw_olympus_conference"},

	// Tile coordinates that grant a card on placement.
	{triggerRe: regexp.MustCompile(`\(6,1\)`), label: "draw_placement_61"},
	{triggerRe: regexp.MustCompile(`\(8,2\)`), label: "draw_placement_82"},
	{triggerRe: regexp.MustCompile(`\(5,8\)`), label: "draw_placement_58"},
	{triggerRe: regexp.MustCompile(`\(6,8\)`), label: "draw_placement_68"},
	{triggerRe: regexp.MustCompile(`\(2,3\)`), altPhrase: "Ascraeus Mons",
		label: "draw_placement_23_Ascraeus"},
}

func (r *mechanismRule) triggered(c *ruleCtx) bool {
	w := c.w
	if r.triggerRe != nil {
		if w.anyMatches(r.triggerRe) {
			return true
		}
		return r.altPhrase != "" && w.anyContains(r.altPhrase)
	}

	if len(r.actions) > 0 {
		for _, a := range r.actions {
			if r.headLimit > 0 {
				if w.headContainsWithAction(r.trigger, a, r.headLimit) {
					return true
				}
			} else if w.anyContainsWithAction(r.trigger, a) {
				return true
			}
		}
		return false
	}
	return w.anyContains(r.trigger)
}

func (r *mechanismRule) satisfied(c *ruleCtx) bool {
	if !r.triggered(c) {
		return false
	}
	cur := c.current()
	for _, p := range r.requireCurrent {
		if !contains(cur, p) {
			return false
		}
	}
	for _, p := range r.excludeCurrent {
		if contains(cur, p) {
			return false
		}
	}
	return true
}

// ruleMechanismTable evaluates the mechanism table top to bottom.
func ruleMechanismTable(c *ruleCtx) (string, bool) {
	for i := range mechanismRules {
		r := &mechanismRules[i]
		if !r.satisfied(c) {
			continue
		}
		if r.variant != nil {
			return r.variant(c), true
		}
		return r.label, true
	}
	return "", false
}
