package domain

// WorkflowState names a step of the probe/expand/re-probe workflow:
// Idle -> Probing -> {Answered | AwaitingExpansionConsent}
// -> (consent) -> Expanding -> ReProbing -> Answered.
type WorkflowState string

const (
	WorkflowIdle             WorkflowState = "idle"
	WorkflowProbing          WorkflowState = "probing"
	WorkflowAnswered         WorkflowState = "answered"
	WorkflowAwaitingConsent  WorkflowState = "awaiting_expansion_consent"
	WorkflowExpanding        WorkflowState = "expanding"
	WorkflowReProbing        WorkflowState = "reprobing"
)

// validWorkflowTransitions enumerates the allowed state changes.
var validWorkflowTransitions = map[WorkflowState][]WorkflowState{
	WorkflowIdle:            {WorkflowProbing},
	WorkflowProbing:         {WorkflowAnswered, WorkflowAwaitingConsent},
	WorkflowAwaitingConsent: {WorkflowExpanding, WorkflowAnswered},
	WorkflowExpanding:       {WorkflowReProbing},
	WorkflowReProbing:       {WorkflowAnswered},
}

// CanTransition reports whether moving from s to next is a legal step.
func (s WorkflowState) CanTransition(next WorkflowState) bool {
	for _, allowed := range validWorkflowTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the workflow is finished in this state.
// AwaitingExpansionConsent is terminal when consent is withheld.
func (s WorkflowState) Terminal() bool {
	return s == WorkflowAnswered
}
