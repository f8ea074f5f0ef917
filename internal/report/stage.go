package report

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
)

// ErrInvalidStage is returned for a stage other than "before" or "after".
var ErrInvalidStage = errors.New("stage must be \"before\" or \"after\"")

// Stage selects which side of a fix run a report describes.
type Stage string

const (
	StageBefore Stage = "before"
	StageAfter  Stage = "after"
)

// ParseStage parses a stage name. The empty string means StageBefore.
func ParseStage(s string) (Stage, error) {
	switch s {
	case "", string(StageBefore):
		return StageBefore, nil
	case string(StageAfter):
		return StageAfter, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidStage, s)
	}
}

var _ pflag.Value = (*Stage)(nil)

// String implements pflag.Value.
func (s *Stage) String() string {
	if *s == "" {
		return string(StageBefore)
	}
	return string(*s)
}

// Set implements pflag.Value.
func (s *Stage) Set(v string) error {
	parsed, err := ParseStage(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Type implements pflag.Value.
func (s *Stage) Type() string { return "stage" }

// linksTitle and resourcesTitle are the headings of the audit reports.
func linksTitle(stage Stage) string {
	if stage == StageAfter {
		return "تقرير الروابط والمسارات المكسورة بعد الإصلاح"
	}
	return "تقرير الروابط والمسارات المكسورة قبل الإصلاح"
}

func resourcesTitle(stage Stage) string {
	if stage == StageAfter {
		return "تقرير مسارات الموارد بعد الإصلاح"
	}
	return "تقرير مسارات الموارد قبل الإصلاح"
}
