package pipeline

import "fmt"

const maxInputPreview = 80

// StageError reports which stage failed, in which phase, and on what input
type StageError struct {
	Stage string
	Phase Phase
	Input any
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q %s on %s: %v", e.Stage, e.Phase, preview(e.Input), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// preview renders a short description of a stage input for error messages
func preview(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		r := []rune(x)
		if len(r) > maxInputPreview {
			return fmt.Sprintf("%q...", string(r[:maxInputPreview]))
		}
		return fmt.Sprintf("%q", x)
	case []string:
		return fmt.Sprintf("[]string(len=%d)", len(x))
	default:
		return fmt.Sprintf("%T", v)
	}
}
