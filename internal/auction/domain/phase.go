package domain

// Phase is the derived lifecycle stage of an auction. It is never stored:
// it is always recomputed from the auction's timestamps and finalized flag,
// so the stored record and its phase cannot drift apart.
type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseLive     Phase = "live"
	PhaseEnded    Phase = "ended"
)

// Action is an operation a caller can attempt on an auction.
type Action string

const (
	ActionEdit     Action = "edit"
	ActionActivate Action = "activate"
	ActionBid      Action = "bid"
	ActionEnd      Action = "end"
	ActionDelete   Action = "delete"
)

// legalPhases is the fixed transition table: which actions are legal in
// which phase. ENDED is terminal and admits nothing; ending an auction whose
// live window already elapsed is still legal because finalization is gated on
// the finalized flag, not the clock (see Auction.Finalize).
var legalPhases = map[Action]map[Phase]bool{
	ActionEdit:     {PhaseUpcoming: true, PhaseLive: true},
	ActionActivate: {PhaseUpcoming: true},
	ActionBid:      {PhaseLive: true},
	ActionEnd:      {PhaseUpcoming: true, PhaseLive: true, PhaseEnded: true},
	ActionDelete:   {PhaseUpcoming: true, PhaseLive: true},
}

// CanPerform reports whether action is legal while the auction is in phase.
func CanPerform(action Action, phase Phase) bool {
	return legalPhases[action][phase]
}
