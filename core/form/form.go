// Package form holds the state of the multi step entity forms and builds
// their submissions.
package form

// Tabs of a form
const (
	TabAliases  = 1
	TabData     = 2
	TabRevision = 3
)

// State is the state of an entity form. Transitions return a new State.
type State struct {
	Tab          int
	AliasesValid bool
	DataValid    bool
	Submitting   bool
	Err          error
}

// New returns the state of a freshly opened form
func New() State {
	return State{
		Tab:          TabAliases,
		AliasesValid: true,
		DataValid:    true,
	}
}

// SetTab switches to tab and records the validity of the form sections.
// Tabs outside the form are clamped to the first or last tab.
func (s State) SetTab(tab int, aliasesValid, dataValid bool) State {
	s.Tab = min(max(tab, TabAliases), TabRevision)
	s.AliasesValid = aliasesValid
	s.DataValid = dataValid
	return s
}

// Next moves to the following tab
func (s State) Next(aliasesValid, dataValid bool) State {
	return s.SetTab(s.Tab+1, aliasesValid, dataValid)
}

// Back moves to the previous tab
func (s State) Back(aliasesValid, dataValid bool) State {
	return s.SetTab(s.Tab-1, aliasesValid, dataValid)
}

// BeginSubmit marks the form as waiting for the server
func (s State) BeginSubmit() State {
	s.Submitting = true
	s.Err = nil
	return s
}

// Fail records a failed submission
func (s State) Fail(err error) State {
	s.Submitting = false
	s.Err = err
	return s
}

// SubmitEnabled reports whether the submit button is active
func (s State) SubmitEnabled() bool {
	return s.AliasesValid && s.DataValid && !s.Submitting
}
