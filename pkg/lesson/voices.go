package lesson

// DefaultVoice is used for any speaker the mapping does not cover.
const DefaultVoice = "alloy"

// VoiceMapping assigns a synthesis voice identifier to each speaker.
type VoiceMapping map[Speaker]string

// DefaultVoiceMapping returns the stock host-to-voice assignment.
func DefaultVoiceMapping() VoiceMapping {
	return VoiceMapping{
		SpeakerHostA: "alloy",
		SpeakerHostB: "echo",
		SpeakerHostC: "fable",
		SpeakerHostD: "onyx",
		SpeakerHostE: "nova",
		SpeakerHostF: "shimmer",
	}
}

// Resolve returns the voice for a speaker, falling back to DefaultVoice.
func (m VoiceMapping) Resolve(s Speaker) string {
	if voice, ok := m[s]; ok && voice != "" {
		return voice
	}
	return DefaultVoice
}

// Merge overlays custom assignments on top of the defaults. A nil or
// empty overlay yields the defaults unchanged.
func (m VoiceMapping) Merge(overlay VoiceMapping) VoiceMapping {
	merged := make(VoiceMapping, len(m)+len(overlay))
	for speaker, voice := range m {
		merged[speaker] = voice
	}
	for speaker, voice := range overlay {
		if voice != "" {
			merged[speaker] = voice
		}
	}
	return merged
}

// Wire converts the mapping to string keys for JSON documents.
func (m VoiceMapping) Wire() map[string]string {
	out := make(map[string]string, len(m))
	for speaker, voice := range m {
		out[speaker.String()] = voice
	}
	return out
}

// VoiceMappingFromWire parses a string-keyed mapping, rejecting unknown
// speaker names.
func VoiceMappingFromWire(raw map[string]string) (VoiceMapping, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(VoiceMapping, len(raw))
	for name, voice := range raw {
		speaker, err := ParseSpeaker(name)
		if err != nil {
			return nil, err
		}
		out[speaker] = voice
	}
	return out, nil
}
