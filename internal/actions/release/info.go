package release

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"trainline.dev/trainline/internal/config"
	"trainline.dev/trainline/internal/trains"
)

// TrainSummary is a release train as printed by release info
type TrainSummary struct {
	Branch  string `yaml:"branch"`
	Version string `yaml:"version"`
}

// Summary describes the active release trains
type Summary struct {
	Next                    TrainSummary  `yaml:"next"`
	ReleaseCandidate        *TrainSummary `yaml:"releaseCandidate,omitempty"`
	FeatureFreeze           bool          `yaml:"featureFreeze"`
	ExceptionalMinor        *TrainSummary `yaml:"exceptionalMinor,omitempty"`
	ExceptionalMinorDistTag string        `yaml:"exceptionalMinorDistTag,omitempty"`
	Latest                  TrainSummary  `yaml:"latest"`
}

// Summarize builds the summary of the active trains. The exceptional minor
// dist tag is included when an exceptional minor is active.
func Summarize(active *trains.ActiveReleaseTrains, cfg *config.Config) *Summary {
	s := &Summary{
		Next:             summarizeTrain(active.Next),
		ReleaseCandidate: optionalTrain(active.ReleaseCandidate),
		FeatureFreeze:    active.IsFeatureFreeze(),
		ExceptionalMinor: optionalTrain(active.ExceptionalMinor),
		Latest:           summarizeTrain(active.Latest),
	}
	if s.ExceptionalMinor != nil {
		s.ExceptionalMinorDistTag = config.DefaultExceptionalMinorDistTag
		if cfg != nil && cfg.Release != nil && cfg.Release.ExceptionalMinorNpmDistTag != "" {
			s.ExceptionalMinorDistTag = cfg.Release.ExceptionalMinorNpmDistTag
		}
	}
	return s
}

// YAML renders the summary as a YAML document
func (s *Summary) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// Text renders the summary for humans
func (s *Summary) Text() string {
	var b strings.Builder
	line := func(name string, train TrainSummary, suffix string) {
		fmt.Fprintf(&b, "%-20s %-10s v%s%s\n", name, train.Branch, train.Version, suffix)
	}
	line("Next", s.Next, "")
	if s.ReleaseCandidate != nil {
		suffix := ""
		if s.FeatureFreeze {
			suffix = " (feature freeze)"
		}
		line("Release candidate", *s.ReleaseCandidate, suffix)
	}
	if s.ExceptionalMinor != nil {
		line("Exceptional minor", *s.ExceptionalMinor, fmt.Sprintf(" (dist-tag %s)", s.ExceptionalMinorDistTag))
	}
	line("Latest", s.Latest, "")
	return b.String()
}

func summarizeTrain(t *trains.ReleaseTrain) TrainSummary {
	return TrainSummary{Branch: t.BranchName, Version: t.Version.String()}
}

func optionalTrain(t *trains.ReleaseTrain) *TrainSummary {
	if t == nil {
		return nil
	}
	s := summarizeTrain(t)
	return &s
}
