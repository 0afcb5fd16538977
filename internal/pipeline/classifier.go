/**
 * Noise Classifier - Labels detections as signal or noise
 *
 * Applies an ordered, idempotent rule list with one terminal classification
 * per detection. UI chrome and timestamps reject the whole detection; score
 * ratios, point suffixes and short UI tags strip the matched substring and
 * reject only if too little name material remains.
 */

package pipeline

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rankline/lobbyscan-worker/internal/detect"
)

const (
	// Garbage rejection thresholds for cleaned name text.
	minAlphaCount = 3
	minAlphaRatio = 0.7
)

var (
	reTimestamp = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

	// Score ratio such as "0/3" or "6-5", standalone or at either end of a
	// longer string, bounded by whitespace.
	reScoreRatio = regexp.MustCompile(`(?:^|\s)\d+\s*[/-]\s*\d+(?:\s|$)`)

	// Parenthesized points suffix such as "(8 pts)".
	rePointsSuffix = regexp.MustCompile(`(?i)\(\s*\d+\s*pts?\s*\)`)

	// Short UI tag: one uppercase letter from the restricted set plus
	// optional digits, standing alone at the start or end of the text
	// (e.g. "U", "P2", "E4").
	reTagPrefix = regexp.MustCompile(`^[UPEBR]\d*\s+`)
	reTagSuffix = regexp.MustCompile(`\s+[UPEBR]\d*$`)

	reMultiSpace = regexp.MustCompile(`\s{2,}`)
)

// Classifier tags detections per the configured keyword set and confidence
// threshold. Classification is idempotent: an already-cleaned signal
// detection classifies to itself.
type Classifier struct {
	keywords            []string // uppercased
	confidenceThreshold float64
	timestampEnabled    bool
}

// NewClassifier builds a classifier. Keywords are matched case-insensitively.
func NewClassifier(keywords []string, confidenceThreshold float64, timestampEnabled bool) *Classifier {
	upper := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToUpper(strings.TrimSpace(kw))
		if kw != "" {
			upper = append(upper, kw)
		}
	}
	return &Classifier{
		keywords:            upper,
		confidenceThreshold: confidenceThreshold,
		timestampEnabled:    timestampEnabled,
	}
}

// Classify tags every detection, preserving input order.
func (c *Classifier) Classify(detections []detect.Detection) []detect.ClassifiedDetection {
	out := make([]detect.ClassifiedDetection, 0, len(detections))
	for _, d := range detections {
		out = append(out, detect.ClassifiedDetection{
			Detection:      d,
			Classification: c.ClassifyOne(d),
		})
	}
	return out
}

// ClassifyOne applies the rule list to a single detection. First terminal
// match wins; stripping rules cascade before the residual-text checks.
func (c *Classifier) ClassifyOne(d detect.Detection) detect.Classification {
	text := collapseSpaces(strings.TrimSpace(d.Text))

	// Rule 1: known UI chrome.
	if c.matchesKeyword(text) {
		return noise(detect.NoiseUIKeyword, text)
	}

	// Rule 2: match timer, e.g. "36:26".
	if c.timestampEnabled && reTimestamp.MatchString(text) {
		return noise(detect.NoiseTimestamp, text)
	}

	// Rules 3-5: strip score ratios, point suffixes and UI tags. Each strip
	// that leaves fewer than three letters rejects the detection outright.
	stripped := text
	for _, re := range []*regexp.Regexp{reScoreRatio, rePointsSuffix, reTagPrefix, reTagSuffix} {
		next := collapseSpaces(strings.TrimSpace(re.ReplaceAllString(stripped, " ")))
		if next != stripped && alphaCount(next) < minAlphaCount {
			return noise(detect.NoiseScoreFragment, next)
		}
		stripped = next
	}

	// Rule 6: backend confidence gate.
	if d.Confidence < c.confidenceThreshold {
		return noise(detect.NoiseLowConfidence, stripped)
	}

	// Rule 7: residual text must look like a name.
	if alphaCount(stripped) < minAlphaCount || alphaRatio(stripped) < minAlphaRatio {
		return noise(detect.NoiseLowAlphaRatio, stripped)
	}

	return detect.Classification{Label: detect.LabelSignal, CleanedText: stripped}
}

func (c *Classifier) matchesKeyword(text string) bool {
	upper := strings.ToUpper(text)
	if upper == "" {
		return false
	}
	for _, kw := range c.keywords {
		if upper == kw || strings.Contains(upper, kw) {
			return true
		}
		// Fragments of longer chrome strings ("TEAM FIGHT" out of the full
		// title) count too, but only for fragments long enough to be
		// unambiguous.
		if len(upper) >= 4 && strings.Contains(kw, upper) {
			return true
		}
	}
	return false
}

func noise(reason detect.NoiseReason, cleaned string) detect.Classification {
	return detect.Classification{Label: detect.LabelNoise, NoiseReason: reason, CleanedText: cleaned}
}

func alphaCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

func alphaRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	return float64(alphaCount(s)) / float64(len(runes))
}

func collapseSpaces(s string) string {
	return reMultiSpace.ReplaceAllString(s, " ")
}
