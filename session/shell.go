package session

// Shell renders the session. Every method is called from the control loop
// and must not call back into the Machine.
type Shell interface {
	SetRecordIcon(Icon)
	SetTimerVisible(bool)
	SetTimerText(string)
	SetAmplitude(float64)
	ShowAlert(Alert)
	StateChanged(State)
}

// NopShell discards every update.
type NopShell struct{}

func (NopShell) SetRecordIcon(Icon)   {}
func (NopShell) SetTimerVisible(bool) {}
func (NopShell) SetTimerText(string)  {}
func (NopShell) SetAmplitude(float64) {}
func (NopShell) ShowAlert(Alert)      {}
func (NopShell) StateChanged(State)   {}
