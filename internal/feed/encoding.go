package feed

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"newsgrid/internal/logger"
	"newsgrid/internal/metrics"
	"newsgrid/internal/normalize"
)

// Feeds that declare UTF-8 but actually ship a legacy 8-bit encoding
// decode into a soup of replacement characters. More than 5 of them,
// or more than 1% of the text, triggers a windows-1252 redecode.
const (
	replacementCharAbsoluteLimit = 5
	replacementCharRatioLimit    = 0.01
)

// decodeFeedBody turns raw feed bytes into clean XML text: UTF-8
// first (BOM-aware), windows-1252 on the replacement-character
// heuristic, control characters stripped either way.
func decodeFeedBody(raw []byte, sourceName string) string {
	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
	if err != nil {
		decoded = raw
	}
	text := string(decoded)

	// The ratio is per character, not per byte; multibyte text would
	// otherwise dilute the denominator.
	replacements := strings.Count(text, "�")
	if replacements > 0 &&
		(replacements > replacementCharAbsoluteLimit ||
			float64(replacements)/float64(max(utf8.RuneCountInString(text), 1)) > replacementCharRatioLimit) {
		logger.Info("high replacement character count, redecoding as windows-1252",
			"source", sourceName, "replacements", replacements)
		metrics.Global.IncrementEncodingRecoveries()

		if redecoded, err := charmap.Windows1252.NewDecoder().Bytes(stripBOM(raw)); err == nil {
			text = string(redecoded)
		}
	}

	return normalize.StripControlChars(text)
}

func stripBOM(raw []byte) []byte {
	if len(raw) >= 3 && raw[0] == 0xEF && raw[1] == 0xBB && raw[2] == 0xBF {
		return raw[3:]
	}
	return raw
}
