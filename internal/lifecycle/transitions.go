package lifecycle

import "github.com/claimdesk/claim-service/internal/domain"

type edge struct {
	to          domain.ClaimState
	description string
	// staffOnly restricts the action to AGENT and SYSTEM actors.
	staffOnly bool
}

// transitions is the complete edge set. withdraw is listed for every
// non-terminal state; terminal states have no entries.
var transitions = map[domain.ClaimState]map[domain.ClaimAction]edge{
	domain.ClaimStateDraft: {
		domain.ActionCompleteIntake: {to: domain.ClaimStateReadyToSubmit, description: "Intake completed"},
		domain.ActionWithdraw:       {to: domain.ClaimStateRejected, description: "Claim withdrawn"},
	},
	domain.ClaimStateReadyToSubmit: {
		domain.ActionSubmit:   {to: domain.ClaimStateSubmitted, description: "Claim submitted"},
		domain.ActionWithdraw: {to: domain.ClaimStateRejected, description: "Claim withdrawn"},
	},
	domain.ClaimStateSubmitted: {
		domain.ActionStartReview: {to: domain.ClaimStateInReview, description: "Review started", staffOnly: true},
		domain.ActionWithdraw:    {to: domain.ClaimStateRejected, description: "Claim withdrawn"},
	},
	domain.ClaimStateInReview: {
		domain.ActionRequestInfo: {to: domain.ClaimStateNeedsMoreInfo, description: "Additional information requested", staffOnly: true},
		domain.ActionApprove:     {to: domain.ClaimStateClosed, description: "Claim approved", staffOnly: true},
		domain.ActionDeny:        {to: domain.ClaimStateRejected, description: "Claim denied", staffOnly: true},
		domain.ActionWithdraw:    {to: domain.ClaimStateRejected, description: "Claim withdrawn"},
	},
	domain.ClaimStateNeedsMoreInfo: {
		domain.ActionResubmit: {to: domain.ClaimStateInReview, description: "Additional information provided"},
		domain.ActionWithdraw: {to: domain.ClaimStateRejected, description: "Claim withdrawn"},
	},
	domain.ClaimStateClosed:   {},
	domain.ClaimStateRejected: {},
}

// AllowedActions returns the actions accepted from state, in declaration order.
func AllowedActions(state domain.ClaimState) []domain.ClaimAction {
	edges := transitions[state]
	out := make([]domain.ClaimAction, 0, len(edges))
	for _, action := range domain.ClaimActions {
		if _, ok := edges[action]; ok {
			out = append(out, action)
		}
	}
	return out
}

// Target returns the state reached by applying action from state.
func Target(state domain.ClaimState, action domain.ClaimAction) (domain.ClaimState, bool) {
	e, ok := transitions[state][action]
	if !ok {
		return "", false
	}
	return e.to, true
}
