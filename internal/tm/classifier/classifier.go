package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tfm-insights/card-tracker/internal/tm/patterns"
)

// Labels produced by the cascade. Every classified move gets exactly one;
// LabelOther is the catch-all that makes classification total.
const (
	// LabelSkip signals that the focal move does not concern the target
	// card at all (wrong attribution) and must not be counted.
	LabelSkip = "skip_wrong_attribution"

	LabelOther = "other"

	// LabelDraft is the generic draft sentinel, resolved to a concrete
	// slot (draft_1..draft_4) by ResolveDraftSlot.
	LabelDraft = "draft"

	LabelResearchDraft = "research_draft"
	LabelDrawStart     = "draw_start"
	LabelPlay          = "play"

	LabelDraw          = "draw"
	LabelDrawPlacement = "draw_placement"
	LabelDrawPrelude   = "draw_prelude"
)

// Ambiguous reports whether label is one of the generic draw labels the
// walker should retry with a wider window.
func Ambiguous(label string) bool {
	return label == LabelDraw || label == LabelDrawPlacement || label == LabelDrawPrelude
}

// Input carries the per-game identities the cascade needs besides the
// window itself.
type Input struct {
	Card            string
	PerspectiveID   string
	PerspectiveName string
	OpponentName    string
}

// Result is the cascade's output: the label plus any diagnostics raised
// while deciding it. Warnings are plain values so the classifier stays
// free of ambient state.
type Result struct {
	Label    string
	Warnings []string
}

// rule is one step of the cascade. It returns the decided label, or
// ok=false to fall through to the next rule.
type rule func(c *ruleCtx) (label string, ok bool)

// cascade is evaluated strictly top to bottom; the first rule that
// decides wins. Adding a mechanism means adding a table entry, not
// touching this list.
var cascade = []rule{
	ruleAttributionGuard,
	rulePlaysCard,
	rulePlacesTile,
	ruleCardSiteEffects,
	ruleRevealTagDraw,
	ruleDraft,
	ruleResearchDraft,
	ruleStartingHand,
	ruleReveal,
	ruleThreeCardDraws,
	ruleBusinessContactsDraw,
	ruleActivatedBuyOrDraw,
	ruleMechanismTable,
	ruleInventionContestKeep,
	ruleBusinessContactsKeep,
	rulePointLuna,
	ruleMarsUniversity,
	rulePlacementByAction,
	ruleDraftBuy,
	ruleGenericDraw,
}

// Classify runs the cascade for one focal move. The window must include
// at least the focal move and card must be a non-empty exact card title.
// Deterministic: no randomness, no external state.
func Classify(in Input, w *Window) Result {
	c := &ruleCtx{in: in, w: w}

	for _, r := range cascade {
		if label, ok := r(c); ok {
			return Result{Label: label, Warnings: c.warnings}
		}
	}
	return Result{Label: LabelOther, Warnings: c.warnings}
}

// ruleCtx bundles the cascade's inputs with lazily built card-specific
// regexes and collected warnings.
type ruleCtx struct {
	in       Input
	w        *Window
	warnings []string
}

func (c *ruleCtx) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func (c *ruleCtx) current() string       { return c.w.Focal() }
func (c *ruleCtx) currentAction() string { return c.w.FocalAction() }

func (c *ruleCtx) prev() string {
	if len(c.w.Descriptions) > 1 {
		return c.w.Descriptions[1]
	}
	return ""
}

// takebackByPerspective reports whether the next move is the perspective
// player reverting, which invalidates the focal move.
func (c *ruleCtx) takebackByPerspective() bool {
	if c.in.PerspectiveName == "" {
		return false
	}
	if !contains(c.w.NextDescription, c.in.PerspectiveName+" takes back their move") {
		return false
	}
	return c.w.NextPlayerID == c.in.PerspectiveID || c.w.NextPlayerID == ""
}

// nextIsTakebackPhrase reports whether the takeback phrase appears in the
// next move regardless of which player it belongs to.
func (c *ruleCtx) nextIsTakebackPhrase() bool {
	return c.in.PerspectiveName != "" &&
		contains(c.w.NextDescription, c.in.PerspectiveName+" takes back their move")
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }

// cardRe builds a regex with the card name quoted into pattern, where
// pattern contains exactly one %s placeholder.
func cardRe(pattern, card string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(pattern, regexp.QuoteMeta(card)))
}

func (w *Window) anyMatches(re *regexp.Regexp) bool {
	for _, d := range w.Descriptions {
		if d != "" && re.MatchString(d) {
			return true
		}
	}
	return false
}

// --- cascade rules, in precedence order ---

// ruleAttributionGuard skips moves whose cleaned description no longer
// mentions the card (confusable card names, player names containing the
// card name).
func ruleAttributionGuard(c *ruleCtx) (string, bool) {
	if c.in.PerspectiveName == "" || c.in.OpponentName == "" {
		return "", false
	}
	if patterns.WrongAttribution(c.in.Card, c.current(), c.in.PerspectiveName, c.in.OpponentName) {
		return LabelSkip, true
	}
	return "", false
}

func rulePlaysCard(c *ruleCtx) (string, bool) {
	re := cardRe(`plays card %s`, c.in.Card)
	if !re.MatchString(c.prev()) && !re.MatchString(c.current()) {
		return "", false
	}
	// "plays card Research Network" is not a play of the Research card.
	if c.in.Card == "Research" {
		if researchVariantRe.MatchString(c.prev()) {
			return "", false
		}
	}
	return LabelOther, true
}

var researchVariantRe = regexp.MustCompile(`plays card Research (Network|Coordination|Outpost)`)

func rulePlacesTile(c *ruleCtx) (string, bool) {
	cur := c.current()
	if cardRe(`places (tile )?%s`, c.in.Card).MatchString(cur) {
		return LabelOther, true
	}
	if cardRe(`places (City on %[1]s|tile City into %[1]s)`, c.in.Card).MatchString(cur) {
		return LabelOther, true
	}
	return "", false
}

// ruleCardSiteEffects covers activations, triggered/immediate effects,
// resource-token movement, scoring and tile-gain phrasing tied to the
// card itself: all non-draw events.
func ruleCardSiteEffects(c *ruleCtx) (string, bool) {
	cur := c.current()
	card := c.in.Card

	if card == "Lava Flows" {
		if c.currentAction() == "place_tile" && lavaOceanRe.MatchString(cur) {
			return LabelOther, true
		}
		if lavaGainRe.MatchString(cur) {
			return LabelOther, true
		}
	}
	switch card {
	case "Capital", "Ecological Zone", "Restricted Area":
		if cardRe(`gains [12].*\(%s\)`, card).MatchString(cur) {
			return LabelOther, true
		}
	}

	for _, phrase := range []string{
		"places tile City into " + card,
		"activates " + card,
		"triggered effect of " + card,
		"activation effect of " + card,
		"immediate effect of " + card,
	} {
		if contains(cur, phrase) {
			return LabelOther, true
		}
	}

	if contains(cur, "scores") &&
		(contains(cur, "for card "+card) || contains(cur, "for city tile at "+card)) {
		return LabelOther, true
	}

	for _, token := range []string{"Science", "Microbe", "Animal"} {
		if contains(cur, "adds "+token+" to "+card) || contains(cur, "removes "+token+" from "+card) {
			return LabelOther, true
		}
	}
	if contains(cur, "copies production box of "+card) || contains(cur, "moves Resource into "+card) {
		return LabelOther, true
	}
	return "", false
}

var (
	lavaOceanRe = regexp.MustCompile(`places Ocean.*\(Lava Flows\)`)
	lavaGainRe  = regexp.MustCompile(`gains [12].*\(Lava Flows\)`)
)

// ruleRevealTagDraw handles reveals that put the card in hand because of
// its tag (Arctic Algae style effects).
func ruleRevealTagDraw(c *ruleCtx) (string, bool) {
	cur := c.current()
	if contains(cur, "reveals "+c.in.Card+": it has a Space tag") {
		return "draw_reveal_space_tag", true
	}
	if contains(cur, "reveals "+c.in.Card+": it has a Plant tag") {
		return "draw_reveal_plant_tag", true
	}
	return "", false
}

// ruleDraft labels draft-card moves, demoting ones that are immediately
// taken back or converted into a buy.
func ruleDraft(c *ruleCtx) (string, bool) {
	if c.currentAction() != "draft_card" {
		return "", false
	}
	if c.nextIsTakebackPhrase() {
		if c.takebackByPerspective() {
			return LabelOther, true
		}
		return LabelDraft, true
	}
	if contains(c.w.NextDescription, "You draft "+c.in.Card) {
		return LabelOther, true
	}
	return LabelDraft, true
}

func ruleResearchDraft(c *ruleCtx) (string, bool) {
	if contains(c.current(), "Research draft") {
		return LabelResearchDraft, true
	}
	return "", false
}

// ruleStartingHand detects the card being bought during the opening
// corporation/hand selection.
func ruleStartingHand(c *ruleCtx) (string, bool) {
	cur := c.current()
	if !contains(cur, "You choose corporation") || !contains(cur, "You buy "+c.in.Card) {
		return "", false
	}
	if c.nextIsTakebackPhrase() {
		if c.takebackByPerspective() {
			return LabelOther, true
		}
		return LabelDrawStart, true
	}
	if contains(c.w.NextDescription, "You choose corporation") {
		return LabelOther, true
	}
	return LabelDrawStart, true
}

// ruleReveal labels reveals where the card is shown but not drawn.
func ruleReveal(c *ruleCtx) (string, bool) {
	cur := c.current()
	if !contains(cur, "reveals "+c.in.Card+":") && !contains(cur, "reveals "+c.in.Card+" |") {
		return "", false
	}
	switch {
	case contains(cur, "it does not have a Microbe tag") || contains(cur, "it has a Microbe tag"):
		return "reveal_microbe", true
	case contains(cur, "it does not have a Plant tag"):
		return "reveal_plant", true
	case contains(cur, "it does not have a Space tag"):
		return "reveal_space", true
	}
	return "reveal", true
}

// ruleThreeCardDraws disambiguates every "draws 3 cards" phrasing:
// preludes, Inventrix, Invention Contest.
func ruleThreeCardDraws(c *ruleCtx) (string, bool) {
	cur := c.current()
	if !contains(cur, "draws 3 cards") {
		return "", false
	}

	nextKeeps := contains(c.w.NextDescription, "You keep")

	if c.w.anyContains("plays card Research Network") && !nextKeeps {
		return "draw_prelude_research_network", true
	}
	if c.w.anyContains("plays card Biolabs") && !nextKeeps {
		return "draw_prelude_biolabs", true
	}
	if c.currentAction() == "play_card" {
		return LabelDrawPrelude, true
	}
	if c.w.anyContains("mandatory action to perform") || c.w.anyContains("corporation Inventrix") {
		return "draw_inventrix", true
	}
	// Not a play action from here on.
	if contains(c.w.NextDescription, "You keep") || contains(c.w.Next2Description, "You keep") {
		return "invention_contest_draw", true
	}
	if c.w.Generation == 1 {
		return "draw_inventrix", true
	}
	c.warnf("unidentified 'draws 3 cards' description: %s", cur)
	return "", false
}

func ruleBusinessContactsDraw(c *ruleCtx) (string, bool) {
	cur := c.current()
	if contains(cur, "draws 4 cards") && !contains(cur, "Research draft") {
		return "business_contacts_draw", true
	}
	return "", false
}

// ruleActivatedBuyOrDraw covers Business Network and Inventors' Guild,
// whose activation offers the card for purchase: the buy counts as a draw
// method, the decline only as a seen method.
func ruleActivatedBuyOrDraw(c *ruleCtx) (string, bool) {
	cur := c.current()
	buyPhrase := "You buy " + c.in.Card

	if c.w.anyContainsWithAction("activates Business Network", "activate_card") {
		if contains(cur, buyPhrase) {
			return "draw_business_network_buy", true
		}
		if contains(cur, "draws 1 card") && !contains(cur, "activates Restricted Area") {
			return "business_network_draw", true
		}
	}
	if c.w.anyContainsWithAction("activates Inventors' Guild", "activate_card") {
		if contains(cur, buyPhrase) {
			return "draw_inventors_guild_buy", true
		}
		if contains(cur, "draws 1 card") && !contains(cur, "activates Restricted Area") {
			return "inventors_guild_draw", true
		}
	}
	return "", false
}

func ruleInventionContestKeep(c *ruleCtx) (string, bool) {
	if contains(c.current(), "You keep") &&
		!c.w.anyContains("You keep Invention Contest") &&
		c.w.anyContains("Invention Contest") {
		return "draw_invention_contest_keep", true
	}
	return "", false
}

func ruleBusinessContactsKeep(c *ruleCtx) (string, bool) {
	if contains(c.current(), "You keep") &&
		!c.w.anyContains("draws 3 cards") &&
		!contains(c.current(), "You buy Business Contacts") &&
		(c.w.anyContains("Business Contacts") || c.w.anyContains("draws 4 cards")) {
		return "draw_business_contacts_keep", true
	}
	return "", false
}

// rulePointLuna: a Point Luna trigger draws the card unless the window
// shows the player playing the card itself in the same context.
func rulePointLuna(c *ruleCtx) (string, bool) {
	if !c.w.anyContains("triggered effect of Point Luna") {
		return "", false
	}
	if c.w.anyContains("plays card " + c.in.Card) {
		return LabelOther, true
	}
	return "draw_point_luna", true
}

func ruleMarsUniversity(c *ruleCtx) (string, bool) {
	if (c.w.anyContains("triggered effect of Mars University") || c.w.anyContains("discards")) &&
		!contains(c.current(), "draws 2 cards") {
		return "draw_mars_university", true
	}
	return "", false
}

// rulePlacementByAction is the generic placement-draw fallback once no
// named tile coordinate matched.
func rulePlacementByAction(c *ruleCtx) (string, bool) {
	if !c.w.hasActionType("place_tile") {
		return "", false
	}
	if contains(c.current(), "draws 2 cards") {
		return "draw_placement_82", true
	}
	return LabelDrawPlacement, true
}

// ruleDraftBuy detects the card being bought after a draft round, checked
// against the following two moves for a takeback or duplicate buy.
func ruleDraftBuy(c *ruleCtx) (string, bool) {
	cur := c.current()
	buyPhrase := "You buy " + c.in.Card
	if !contains(cur, buyPhrase) {
		return "", false
	}

	paysAndKeeps := contains(cur, "pays") && contains(cur, "keeps")
	paysFixed := contains(cur, "pays 6") || contains(cur, "pays 9") || contains(cur, "pays 12")
	if !paysAndKeeps && !paysFixed && !c.w.hasActionType("draft_card") {
		return "", false
	}

	if contains(c.w.Next2Description, buyPhrase) {
		return LabelOther, true
	}
	if c.nextIsTakebackPhrase() {
		if c.takebackByPerspective() {
			return LabelOther, true
		}
		return "draw_draft_buy", true
	}
	return "draw_draft_buy", true
}

// ruleGenericDraw is the last resort before the catch-all: any remaining
// buy/draw/keep phrasing. A 10-card draw is the starting-hand deal, not a
// draw of this card.
func ruleGenericDraw(c *ruleCtx) (string, bool) {
	cur := c.current()
	if !contains(cur, "buy") && !contains(cur, "draw") && !contains(cur, "keep") {
		return "", false
	}
	if contains(cur, "draws 10 cards") || c.nextIsTakebackPhrase() {
		return LabelOther, true
	}
	if contains(cur, "buy") {
		return "draw_draft_buy", true
	}
	return LabelDraw, true
}
