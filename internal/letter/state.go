package letter

import "strings"

// State is the generator view: what the user typed and the outcome of the last
// request. After every transition at most one of Loading, Letter and Error is set.
type State struct {
	Description string
	Letter      string
	Loading     bool
	Error       string
}

// Begin marks a request in flight and clears both the previous error and the
// previous letter.
func (s *State) Begin() {
	s.Loading = true
	s.Error = ""
	s.Letter = ""
}

// Succeed stores the generated letter, replacing any prior error.
func (s *State) Succeed(letter string) {
	s.Letter = letter
	s.Error = ""
	s.Loading = false
}

// Fail stores the user-facing error and drops the letter.
func (s *State) Fail(message string) {
	s.Error = message
	s.Letter = ""
	s.Loading = false
}

// CanSubmit reports whether the generate button is enabled.
func (s State) CanSubmit() bool {
	return !s.Loading && hasText(s.Description)
}

// Run drives one generation through the state transitions. Empty input is a
// no-op: the state is left untouched and gen is not called.
func (s *State) Run(gen func(description string) (string, error)) {
	if !hasText(s.Description) {
		return
	}
	s.Begin()
	letter, err := gen(s.Description)
	if err != nil {
		s.Fail(UserMessage(err))
		return
	}
	s.Succeed(letter)
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
