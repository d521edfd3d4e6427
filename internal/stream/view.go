package stream

// Progress is the last known position reported by the producer.
type Progress struct {
	Step       int
	TotalSteps int
	Message    string
}

// View receives the observable effects of a session. Implementations render
// them to a terminal, a test recorder or any other surface.
type View interface {
	// ShowProgress displays or updates the transient progress indicator.
	ShowProgress(p Progress)
	// HideProgress removes the progress indicator.
	HideProgress()
	// RenderResponse shows the final answer with optional metadata lines.
	RenderResponse(text string, meta []string)
	// RenderError shows an error with error styling.
	RenderError(message string)
	// ShowStatus shows a short status line that ends the loading state.
	ShowStatus(message string)
}

// NopView discards every effect.
type NopView struct{}

func (NopView) ShowProgress(Progress)            {}
func (NopView) HideProgress()                    {}
func (NopView) RenderResponse(string, []string) {}
func (NopView) RenderError(string)               {}
func (NopView) ShowStatus(string)                {}
