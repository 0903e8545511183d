package modemdisplay

// Telemetry is one polled sample of modem state as reported by the backend.
type Telemetry struct {
	SignalQuality     float64 `json:"signal_quality"`
	RegistrationState string  `json:"registration_state"`
	RegionCode        string  `json:"region_code"`
}

// Display bundles every directive derived from a single Telemetry sample.
// Empty fields mean "nothing to render" for that slot.
type Display struct {
	SignalIcon         Icon   `json:"signal_icon"`
	SignalTone         Tone   `json:"signal_tone"`
	SignalText         string `json:"signal_text"`
	SignalToneOverride Tone   `json:"signal_tone_override,omitempty"`
	RegistrationIcon   Icon   `json:"registration_icon,omitempty"`
	RegistrationLabel  string `json:"registration_label,omitempty"`
	RegistrationTone   Tone   `json:"registration_tone"`
	ShowRegistration   bool   `json:"show_registration"`
	FlagClass          string `json:"flag_class,omitempty"`
}

// Classify derives all display directives for t.
func Classify(t Telemetry) Display {
	return Display{
		SignalIcon:         SignalIcon(t.SignalQuality),
		SignalTone:         SignalTone(t.SignalQuality),
		SignalText:         FormatSignal(t.SignalQuality),
		SignalToneOverride: SignalToneOverride(t.RegistrationState),
		RegistrationIcon:   RegistrationStateIcon(t.RegistrationState),
		RegistrationLabel:  RegistrationStateLabel(t.RegistrationState),
		RegistrationTone:   RegistrationStateTone(t.RegistrationState),
		ShowRegistration:   ShouldShowRegistrationIcon(t.RegistrationState),
		FlagClass:          FlagClass(t.RegionCode),
	}
}

// EffectiveSignalTone is the tone the signal indicator is drawn with:
// the registration override when present, otherwise the percentage tone.
func (d Display) EffectiveSignalTone() Tone {
	if d.SignalToneOverride != ToneNone {
		return d.SignalToneOverride
	}
	return d.SignalTone
}
