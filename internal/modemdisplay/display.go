// Package modemdisplay maps raw modem telemetry to symbolic display directives.
//
// Every function is total and pure: unknown or malformed input falls through to
// the default branch of its rule table and yields the zero value of the result
// type (IconNone, ToneNone or ""). The presentation layer owns the mapping from
// these identifiers to actual assets and colors.
package modemdisplay

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Icon identifies a display icon.
type Icon string

const (
	IconNone         Icon = ""
	IconNoSignal     Icon = "no-signal"
	IconSignalLow    Icon = "signal-low"
	IconSignalMedium Icon = "signal-medium"
	IconSignalHigh   Icon = "signal-high"
	IconBlocked      Icon = "blocked"
	IconMessage      Icon = "message"
)

// Tone is a semantic severity bucket used to pick a presentation color.
type Tone string

const (
	ToneNone    Tone = ""
	ToneNeutral Tone = "neutral"
	ToneGood    Tone = "good"
	ToneFair    Tone = "fair"
	ToneWeak    Tone = "weak"
	ToneBad     Tone = "bad"
	ToneInfo    Tone = "info"
)

// Registration states reported by the modem that carry display rules.
const (
	StateDenied        = "Denied"
	StateRoaming       = "Roaming"
	StateSMSOnly       = "SMS Only"
	StateEmergencyOnly = "Emergency Only"
	StateUnknown       = "Unknown"
	StateIdle          = "Idle"
)

// RoamingLabel is the short label shown next to the signal icon while roaming.
const RoamingLabel = "R"

const flagClassPrefix = "fi fi-"

var regionCodePattern = regexp.MustCompile(`^[a-z]{2}$`)

// SignalIcon selects the signal icon for a quality percentage.
// Values outside [0,100] fall through the same thresholds.
func SignalIcon(percentage float64) Icon {
	switch {
	case percentage == 0:
		return IconNoSignal
	case percentage >= 70:
		return IconSignalHigh
	case percentage >= 50:
		return IconSignalMedium
	case percentage >= 30:
		return IconSignalLow
	default:
		return IconNoSignal
	}
}

// SignalTone selects the tone for a quality percentage.
func SignalTone(percentage float64) Tone {
	switch {
	case percentage == 0:
		return ToneNeutral
	case percentage >= 70:
		return ToneGood
	case percentage >= 50:
		return ToneFair
	case percentage >= 30:
		return ToneWeak
	default:
		return ToneBad
	}
}

// FormatSignal renders the percentage rounded to the nearest integer, e.g. "73%".
// Halves round toward positive infinity, so 72.5 renders as "73%" and -2.5 as "-2%".
// Non-finite inputs render as "NaN%", "Infinity%" and "-Infinity%".
func FormatSignal(percentage float64) string {
	switch {
	case math.IsInf(percentage, 1):
		return "Infinity%"
	case math.IsInf(percentage, -1):
		return "-Infinity%"
	}
	return strconv.FormatFloat(roundHalfUp(percentage), 'f', 0, 64) + "%"
}

func roundHalfUp(v float64) float64 {
	r := math.Round(v)
	if v-r == 0.5 {
		r++
	}
	if r == 0 {
		// normalise -0
		return 0
	}
	return r
}

// RegistrationStateIcon returns the icon for a registration state, or IconNone.
func RegistrationStateIcon(state string) Icon {
	normalized := strings.TrimSpace(state)
	if normalized == StateDenied {
		return IconBlocked
	}
	if strings.Contains(normalized, StateSMSOnly) {
		return IconMessage
	}
	return IconNone
}

// RegistrationStateLabel returns RoamingLabel for roaming states, or "".
func RegistrationStateLabel(state string) string {
	if isRoaming(strings.TrimSpace(state)) {
		return RoamingLabel
	}
	return ""
}

// RegistrationStateTone returns the tone for a registration state.
// Branches are checked in order: Denied, SMS Only, Roaming; the first match wins.
func RegistrationStateTone(state string) Tone {
	normalized := strings.TrimSpace(state)
	switch {
	case normalized == StateDenied:
		return ToneBad
	case strings.Contains(normalized, StateSMSOnly):
		return ToneInfo
	case isRoaming(normalized):
		return ToneWeak
	default:
		return ToneNeutral
	}
}

// ShouldShowRegistrationIcon reports whether the registration indicator
// (icon or label) should be rendered at all.
func ShouldShowRegistrationIcon(state string) bool {
	normalized := strings.TrimSpace(state)
	return normalized == StateDenied ||
		strings.Contains(normalized, StateSMSOnly) ||
		isRoaming(normalized)
}

// SignalToneOverride returns the tone that replaces the percentage-derived
// signal tone for the given registration state, or ToneNone when the
// percentage-derived tone applies unchanged.
func SignalToneOverride(state string) Tone {
	normalized := strings.TrimSpace(state)
	switch normalized {
	case StateEmergencyOnly:
		return ToneBad
	case StateUnknown, StateIdle, "":
		return ToneNeutral
	default:
		return ToneNone
	}
}

// FlagClass returns the flag identifier for a two-letter region code, or ""
// when the code is not exactly two ASCII letters after trimming.
// The code is not checked against the ISO 3166 list.
func FlagClass(regionCode string) string {
	normalized := strings.ToLower(strings.TrimSpace(regionCode))
	if !regionCodePattern.MatchString(normalized) {
		return ""
	}
	return flagClassPrefix + normalized
}

// "Roaming" exact or as part of a compound state such as "SMS Only (Roaming)".
func isRoaming(normalized string) bool {
	return normalized == StateRoaming || strings.Contains(normalized, StateRoaming)
}
