// Package dispatch hands work items to the external task processor over
// HTTP webhooks, one target per work type.
package dispatch

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/dmitrijs2005/vat/internal/server/models"
)

// Targets is the fixed table of webhook URLs. It is validated once and
// never mutated afterwards.
type Targets struct {
	transcription string
	analyses      map[models.AnalysisType]string
}

// NewTargets validates the table: the transcription URL and one URL per
// known analysis type are required, and unknown types are rejected.
func NewTargets(transcription string, analyses map[string]string) (*Targets, error) {
	if err := checkURL(transcription); err != nil {
		return nil, fmt.Errorf("transcription target: %w", err)
	}

	t := &Targets{
		transcription: transcription,
		analyses:      make(map[models.AnalysisType]string, len(analyses)),
	}
	for name, raw := range analyses {
		at, err := models.ParseAnalysisType(name)
		if err != nil {
			return nil, fmt.Errorf("analysis target: %w", err)
		}
		if err := checkURL(raw); err != nil {
			return nil, fmt.Errorf("analysis target %s: %w", name, err)
		}
		t.analyses[at] = raw
	}

	var missing []string
	for _, at := range models.AnalysisTypes() {
		if _, ok := t.analyses[at]; !ok {
			missing = append(missing, string(at))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("no analysis target for: %s", strings.Join(missing, ", "))
	}
	return t, nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url %q", raw)
	}
	return nil
}

func (t *Targets) Transcription() string {
	return t.transcription
}

// Analysis returns the URL for at. Every known type has one after NewTargets.
func (t *Targets) Analysis(at models.AnalysisType) (string, bool) {
	u, ok := t.analyses[at]
	return u, ok
}
