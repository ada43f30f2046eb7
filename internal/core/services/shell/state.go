package shell

import "github.com/lcalzada-xor/photomap/internal/core/domain"

// State is everything the shell displays besides the map.
type State struct {
	Errors []domain.ErrorRecord
}

// appendError returns s with rec appended. s is not modified.
func appendError(s State, rec domain.ErrorRecord) State {
	errs := make([]domain.ErrorRecord, len(s.Errors), len(s.Errors)+1)
	copy(errs, s.Errors)
	return State{Errors: append(errs, rec)}
}

func clearErrors(State) State {
	return State{}
}

// Render projects the state onto the error panel.
func Render(s State) domain.ErrorPanel {
	panel := domain.ErrorPanel{Errors: make([]string, 0, len(s.Errors))}
	for _, rec := range s.Errors {
		panel.Errors = append(panel.Errors, rec.String())
	}
	return panel
}
