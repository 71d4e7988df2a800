package session

import (
	"sort"
	"time"

	"copyartifacts/internal/artifact"
	"copyartifacts/internal/resolver"
	"copyartifacts/internal/services"
)

// StatusPlanned marks entries of a dry-run report.
const StatusPlanned = "planned"

// Report is the stable result of one session, suitable for tables and JSON.
type Report struct {
	SessionID  string    `json:"session_id"`
	DryRun     bool      `json:"dry_run"`
	Flatten    bool      `json:"flatten"`
	Mode       string    `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary    Summary         `json:"summary"`
	Entries    []EntryResult   `json:"entries"`
	Skipped    []SkippedResult `json:"skipped"`
	TreeErrors []TreeFailure   `json:"tree_errors"`
}

// Summary counts entries by outcome.
type Summary struct {
	Planned     int `json:"planned"`
	Transferred int `json:"transferred"`
	Unchanged   int `json:"unchanged"`
	Failed      int `json:"failed"`
	Canceled    int `json:"canceled"`
	Skipped     int `json:"skipped"`
	TreeErrors  int `json:"tree_errors"`
}

// EntryResult is one planned or executed transfer.
type EntryResult struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
	Owner  string `json:"owner"`
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SkippedResult is an artifact left untouched by the resolver.
type SkippedResult struct {
	Source     string   `json:"source"`
	Kind       string   `json:"kind"`
	Reason     string   `json:"reason"`
	Candidates []string `json:"candidates,omitempty"`
}

// TreeFailure is a source tree that could not be processed.
type TreeFailure struct {
	Root  string `json:"root"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

func (r *Report) addOutcomes(outcomes []artifact.Outcome) {
	for _, o := range outcomes {
		res := EntryResult{
			Source: o.Entry.Artifact.Path,
			Dest:   o.Entry.Dest,
			Owner:  o.Entry.Owner,
			Status: string(o.Status),
			Kind:   o.Kind,
		}
		if o.Err != nil {
			res.Error = o.Err.Error()
		}
		r.Entries = append(r.Entries, res)
	}
}

func (r *Report) addPlanned(entries []artifact.Entry) {
	for _, e := range entries {
		r.Entries = append(r.Entries, EntryResult{
			Source: e.Artifact.Path,
			Dest:   e.Dest,
			Owner:  e.Owner,
			Status: StatusPlanned,
		})
	}
}

func (r *Report) addPlanFindings(plan resolver.Plan) {
	for _, skip := range plan.Skipped() {
		r.Skipped = append(r.Skipped, SkippedResult{
			Source:     skip.Artifact.Path,
			Kind:       skip.Kind,
			Reason:     skip.Reason,
			Candidates: skip.Candidates,
		})
	}
	for _, te := range plan.TreeErrors() {
		r.addTreeError(te.Root, te.Err)
	}
}

func (r *Report) addTreeError(root string, err error) {
	r.TreeErrors = append(r.TreeErrors, TreeFailure{Root: root, Kind: services.Kind(err), Error: err.Error()})
}

// Finalize normalizes timestamps to UTC, sorts every list, and recomputes the
// summary from the entries.
func (r *Report) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Entries, func(i, j int) bool {
		if r.Entries[i].Source != r.Entries[j].Source {
			return r.Entries[i].Source < r.Entries[j].Source
		}
		return r.Entries[i].Dest < r.Entries[j].Dest
	})
	sort.SliceStable(r.Skipped, func(i, j int) bool { return r.Skipped[i].Source < r.Skipped[j].Source })
	sort.SliceStable(r.TreeErrors, func(i, j int) bool { return r.TreeErrors[i].Root < r.TreeErrors[j].Root })

	var s Summary
	for _, e := range r.Entries {
		switch e.Status {
		case StatusPlanned:
			s.Planned++
		case string(artifact.StatusTransferred):
			s.Transferred++
		case string(artifact.StatusUnchanged):
			s.Unchanged++
		case string(artifact.StatusFailed):
			s.Failed++
		case string(artifact.StatusCanceled):
			s.Canceled++
		}
	}
	s.Skipped = len(r.Skipped)
	s.TreeErrors = len(r.TreeErrors)
	r.Summary = s
}

// Failed reports whether any entry or tree did not complete. Skipped
// artifacts are not failures.
func (r Report) Failed() bool {
	return r.Summary.Failed > 0 || r.Summary.Canceled > 0 || r.Summary.TreeErrors > 0
}
