package lesson

import "fmt"

// Speaker identifies who delivers a dialogue turn. The set is closed:
// unknown names are rejected at decode time instead of being silently
// mapped to a default voice later.
type Speaker int

const (
	SpeakerNarrator Speaker = iota
	SpeakerHostA
	SpeakerHostB
	SpeakerHostC
	SpeakerHostD
	SpeakerHostE
	SpeakerHostF
)

// String returns the wire representation of a Speaker.
func (s Speaker) String() string {
	switch s {
	case SpeakerNarrator:
		return "Narrator"
	case SpeakerHostA:
		return "Host A"
	case SpeakerHostB:
		return "Host B"
	case SpeakerHostC:
		return "Host C"
	case SpeakerHostD:
		return "Host D"
	case SpeakerHostE:
		return "Host E"
	case SpeakerHostF:
		return "Host F"
	default:
		return "UNKNOWN"
	}
}

// ParseSpeaker maps a wire name back to a Speaker.
func ParseSpeaker(name string) (Speaker, error) {
	switch name {
	case "Narrator":
		return SpeakerNarrator, nil
	case "Host A":
		return SpeakerHostA, nil
	case "Host B":
		return SpeakerHostB, nil
	case "Host C":
		return SpeakerHostC, nil
	case "Host D":
		return SpeakerHostD, nil
	case "Host E":
		return SpeakerHostE, nil
	case "Host F":
		return SpeakerHostF, nil
	}
	return 0, fmt.Errorf("unknown speaker %q", name)
}

func (s Speaker) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Speaker) UnmarshalText(data []byte) error {
	parsed, err := ParseSpeaker(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
