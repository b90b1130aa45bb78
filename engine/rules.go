package engine

// DefaultUnoPenalty is the number of cards drawn for a missed UNO call.
const DefaultUnoPenalty = 2

// GameRules holds the rule variants for one game. Rules never change while a
// game is running.
type GameRules struct {
	ModeName        string `json:"modeName"`
	Stacking        bool   `json:"stacking"`        // +2/+4 may be answered with another draw card
	DrawUntilPlay   bool   `json:"drawUntilPlay"`   // keep drawing until a playable card appears
	SevenZero       bool   `json:"sevenZero"`       // 7 swaps hands, 0 rotates all hands
	JumpIn          bool   `json:"jumpIn"`          // out-of-turn play of an identical card
	UnoPenaltyCount int    `json:"unoPenaltyCount"` // cards drawn for a missed UNO call
	ForcePlay       bool   `json:"forcePlay"`       // cannot draw while holding a legal card
}

// NormalRules returns the standard rule set.
func NormalRules() GameRules {
	return GameRules{
		ModeName:        "Normal",
		UnoPenaltyCount: DefaultUnoPenalty,
	}
}

// NoMercyRules returns the aggressive preset with every variant enabled.
func NoMercyRules() GameRules {
	return GameRules{
		ModeName:        "No Mercy",
		Stacking:        true,
		DrawUntilPlay:   true,
		SevenZero:       true,
		JumpIn:          true,
		UnoPenaltyCount: 4,
		ForcePlay:       true,
	}
}

// RulesByName returns a preset by its mode name. Unknown names fall back to
// NormalRules with ok=false.
func RulesByName(name string) (GameRules, bool) {
	switch name {
	case "Normal", "normal", "":
		return NormalRules(), true
	case "No Mercy", "no_mercy", "nomercy":
		return NoMercyRules(), true
	}
	return NormalRules(), false
}

// penaltyCount returns the missed-UNO penalty, treating 0 as the default.
func (r *GameRules) penaltyCount() int {
	if r.UnoPenaltyCount <= 0 {
		return DefaultUnoPenalty
	}
	return r.UnoPenaltyCount
}
