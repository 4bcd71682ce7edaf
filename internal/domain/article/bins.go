package article

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Binning rules applied by the loader that produces the collection.
const (
	HighQualityThreshold = 80
	QualityBinSize       = 10
	TitleLenBinSize      = 20
	MaxQualityBin        = 100
	// MissingBin marks a bin whose source value was absent or unparsable.
	MissingBin = -1
)

// QualityBin buckets a quality score into [0, 100] in steps of 10.
func QualityBin(quality float64) int {
	if math.IsNaN(quality) || math.IsInf(quality, 0) {
		return MissingBin
	}
	b := int(math.Floor(quality/QualityBinSize)) * QualityBinSize
	return max(0, min(MaxQualityBin, b))
}

// TitleLenBin buckets a title length in steps of 20.
func TitleLenBin(length int) int {
	if length < 0 {
		return MissingBin
	}
	return (length / TitleLenBinSize) * TitleLenBinSize
}

// IsHighQuality returns 1 when quality reaches the threshold, else 0.
func IsHighQuality(quality float64) int {
	if quality >= HighQualityThreshold {
		return 1
	}
	return 0
}

var titleCleaner = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// CleanTitle replaces control whitespace with spaces and trims the result.
func CleanTitle(title string) string {
	return strings.TrimSpace(titleCleaner.Replace(title))
}

// TitleLength is the length of the cleaned title in characters.
func TitleLength(title string) int {
	return utf8.RuneCountInString(CleanTitle(title))
}
