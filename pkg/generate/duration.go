package generate

// Byte-rate table for duration estimation. Precise duration would need
// decoding the container; a bitrate-based estimate is a documented
// approximation.
var bytesPerSecond = map[string]int64{
	"mp3":  16000,  // 128 kbps
	"wav":  176400, // 44.1 kHz, 16-bit, stereo PCM
	"opus": 12000,  // 96 kbps
	"aac":  16000,  // 128 kbps
	"flac": 88200,  // rough half-rate of PCM
}

// EstimateDuration guesses a duration in whole seconds from byte length
// and format bitrate. When the format is unknown it falls back to a
// reading-speed estimate from the text length (~150 wpm, ~5 chars per
// word). Never returns less than one second for non-empty input.
func EstimateDuration(sizeBytes int64, format string, textLen int) int {
	if rate, ok := bytesPerSecond[format]; ok && sizeBytes > 0 {
		seconds := int(sizeBytes / rate)
		if seconds < 1 {
			seconds = 1
		}
		return seconds
	}
	seconds := textLen / 750
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
