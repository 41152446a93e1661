package pattern

import (
	"context"
	"fmt"
	"regexp"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// Group names with dedicated meaning: they populate the player identity
// in addition to the Data map.
const (
	groupName    = "name"
	groupSteamID = "steam_id"
)

// Classifier matches log lines against user-defined regular expression
// patterns from a YAML file.
//
// Named capture groups (?P<name>...) are extracted into the classified
// line's Data field; the "name" and "steam_id" groups also fill in the
// player. All patterns are checked, so one line can yield several
// classified lines.
//
// Classifier is safe for concurrent use by multiple goroutines.
type Classifier struct {
	patterns []*compiledPattern
}

// compiledPattern is a single compiled pattern with its metadata.
type compiledPattern struct {
	id    string
	kind  event.Kind
	regex *regexp.Regexp
}

// NewClassifier compiles all patterns of a File into a Classifier.
// Returns a PatternError if any regex fails to compile.
func NewClassifier(pf *File) (*Classifier, error) {
	if pf == nil {
		return nil, fmt.Errorf("pattern file is nil")
	}

	patterns := make([]*compiledPattern, 0, len(pf.Patterns))
	for i, p := range pf.Patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "regex",
				Message: fmt.Sprintf("invalid regular expression: %v", err),
				Cause:   err,
			}
		}
		patterns = append(patterns, &compiledPattern{
			id:    p.ID,
			kind:  event.Kind(p.Kind),
			regex: re,
		})
	}

	return &Classifier{patterns: patterns}, nil
}

// NewClassifierFromFile loads a pattern file and compiles it in one step.
func NewClassifierFromFile(path string) (*Classifier, error) {
	pf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewClassifier(pf)
}

// ClassifyLine implements the dayzlog.Classifier interface. The line is
// matched against all patterns in file order.
//
// The time-of-day is taken from the first 8 characters of the line when
// they parse as HH:MM:SS; lines without a time prefix still match but
// carry a zero time.
func (c *Classifier) ClassifyLine(_ context.Context, line string) (dayzlog.Result, error) {
	var lines []event.ParsedLine

	tod, _ := event.ParseTimeOfDay(line)

	for _, cp := range c.patterns {
		matches := cp.regex.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		pl := event.ParsedLine{
			Kind: cp.kind,
			Time: tod,
			Raw:  line,
		}

		names := cp.regex.SubexpNames()
		var data map[string]string
		for i := 1; i < len(names) && i < len(matches); i++ {
			switch names[i] {
			case "":
				continue
			case groupName:
				pl.Player.Name = matches[i]
			case groupSteamID:
				pl.Player.SteamID = matches[i]
			}
			if data == nil {
				data = make(map[string]string)
			}
			data[names[i]] = matches[i]
		}
		pl.Data = data

		lines = append(lines, pl)
	}

	if len(lines) == 0 {
		return dayzlog.Result{}, nil
	}
	return dayzlog.Result{Lines: lines, Matched: true}, nil
}
