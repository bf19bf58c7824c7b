package agent

import (
	"strings"
	"time"

	"github.com/MaxProspero/permanence-os-sub000/core"
	"github.com/MaxProspero/permanence-os-sub000/logging"
)

// placeholderMarkers fail review when present anywhere in the artifact.
var placeholderMarkers = []string{"TODO:", "TBD", "FIXME", "PLACEHOLDER", "[INSERT"}

// dominanceThreshold is the maximum share of evidence lines one source may
// contribute before the artifact is considered single-source biased.
const dominanceThreshold = 0.7

// ReviewerOptions configures a Reviewer.
type ReviewerOptions struct {
	Logger logging.Logger
	Clock  func() time.Time
}

// Reviewer applies the structural rubric to a produced artifact. The
// rubric is purely mechanical; it never judges meaning or style.
type Reviewer struct {
	logger logging.Logger
	clock  func() time.Time
}

// NewReviewer creates a Reviewer.
func NewReviewer(optFns ...func(o *ReviewerOptions)) *Reviewer {
	opts := ReviewerOptions{
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Reviewer{logger: opts.Logger, clock: opts.Clock}
}

// Review checks artifact content against the rubric. RequiredChanges is
// empty exactly when the artifact passes every check.
func (r *Reviewer) Review(content string) core.ReviewResult {
	var required []string
	var notes []string

	if strings.TrimSpace(content) == "" {
		required = append(required, "artifact is empty")
	}

	for _, marker := range placeholderMarkers {
		if strings.Contains(content, marker) {
			required = append(required, "artifact contains placeholder text: "+marker)
		}
	}

	if !strings.Contains(content, provenanceHeading) {
		required = append(required, "artifact lacks a sources section")
	}

	required = append(required, r.checkEvidence(content, &notes)...)

	approved := len(required) == 0
	if approved {
		notes = append(notes, "all structural checks passed")
		r.logger.Info("Reviewer approved artifact")
	} else {
		r.logger.Warn("Reviewer rejected artifact", "required_changes", len(required))
	}

	return core.ReviewResult{
		Approved:        approved,
		Notes:           notes,
		RequiredChanges: required,
		CreatedAt:       r.clock().UTC(),
	}
}

// checkEvidence enforces per-deliverable evidence lines and the source
// dominance limit. Only structured artifacts (with "### " deliverable
// headings) are held to the per-deliverable rule.
func (r *Reviewer) checkEvidence(content string, notes *[]string) []string {
	var required []string

	sections := splitDeliverables(content)
	for _, section := range sections {
		if countEvidenceLines(section.body) == 0 {
			required = append(required, "deliverable has no evidence lines: "+section.title)
		}
	}
	if len(sections) > 0 {
		*notes = append(*notes, "structured artifact: per-deliverable evidence checked")
	}

	counts := map[string]int{}
	total := 0
	for _, line := range strings.Split(content, "\n") {
		src, ok := evidenceSource(line)
		if !ok {
			continue
		}
		counts[src]++
		total++
	}
	if total > 0 {
		for src, n := range counts {
			if float64(n)/float64(total) >= dominanceThreshold {
				required = append(required, "single source dominates the evidence: "+src)
				break
			}
		}
	}

	return required
}

type deliverableSection struct {
	title string
	body  string
}

// splitDeliverables extracts "### " sections from the output block,
// stopping at the sources section.
func splitDeliverables(content string) []deliverableSection {
	body := content
	if idx := strings.Index(body, provenanceHeading); idx >= 0 {
		body = body[:idx]
	}

	var sections []deliverableSection
	parts := strings.Split(body, "\n### ")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		title, rest, _ := strings.Cut(part, "\n")
		sections = append(sections, deliverableSection{
			title: strings.TrimSpace(title),
			body:  rest,
		})
	}
	return sections
}

// countEvidenceLines counts "- [<source>] ..." lines in a section body.
func countEvidenceLines(body string) int {
	count := 0
	for _, line := range strings.Split(body, "\n") {
		if _, ok := evidenceSource(line); ok {
			count++
		}
	}
	return count
}

// evidenceSource parses one evidence line, returning the bracketed source.
func evidenceSource(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "- [") {
		return "", false
	}
	end := strings.Index(trimmed, "]")
	if end <= 3 {
		return "", false
	}
	return trimmed[3:end], true
}
