package llm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/siherrmann/ragcore/helper"
)

var scorePattern = regexp.MustCompile(`\d*\.?\d+`)

// parseStructured extracts the shape the caller asked for from a raw
// completion. It is intentionally lenient: the model rarely answers
// with nothing but the expected token, so each shape scans for the
// first match rather than requiring an exact-body response.
func parseStructured(raw string, shape ParseShape) (any, error) {
	switch shape {
	case ShapeYesNo:
		return parseYesNo(raw), nil
	case ShapeScore:
		return parseScore(raw)
	case ShapeQuestions:
		return parseQuestions(raw), nil
	default:
		return nil, helper.NewKindError("parse structured", helper.KindInternal, fmt.Errorf("unknown parse shape: %s", shape))
	}
}

// parseYesNo defaults to false on ambiguous output, per the chunk
// classifier's fail-closed contract.
func parseYesNo(raw string) bool {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(normalized, "yes")
}

func parseScore(raw string) (float64, error) {
	match := scorePattern.FindString(raw)
	if match == "" {
		return 0, helper.NewKindError("parse score", helper.KindUpstream, fmt.Errorf("no numeric score found in completion: %q", raw))
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, helper.NewKindError("parse score", helper.KindUpstream, err)
	}
	if score > 1 && score <= 100 {
		score = score / 100
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

var listPrefixPattern = regexp.MustCompile(`^\s*(\d+[.)]\s*|[-*•]\s*)`)

// parseQuestions splits an enumerated list into self-contained
// subquestions: strips numeric/bullet prefixes, drops blanks and any
// line that merely echoes a "Sub-question:" label.
func parseQuestions(raw string) []string {
	lines := strings.Split(raw, "\n")
	questions := make([]string, 0, len(lines))
	for _, line := range lines {
		line = listPrefixPattern.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "sub-question:" || lower == "subquestion:" {
			continue
		}
		line = strings.TrimPrefix(line, "Sub-question:")
		line = strings.TrimPrefix(line, "Subquestion:")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		questions = append(questions, line)
	}
	return questions
}
