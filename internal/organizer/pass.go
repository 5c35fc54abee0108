package organizer

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/rename"
	"github.com/google/uuid"
)

// Summary counts what one pass did.
type Summary struct {
	PassID   string
	Trigger  database.Trigger
	DryRun   bool
	Counts   map[rename.Outcome]int
	Deferred int
	Errors   []error
	Duration time.Duration

	mu sync.Mutex
}

func newSummary(id string, trigger database.Trigger, dryRun bool) *Summary {
	return &Summary{
		PassID:  id,
		Trigger: trigger,
		DryRun:  dryRun,
		Counts:  make(map[rename.Outcome]int),
	}
}

func (s *Summary) add(o rename.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Counts[o]++
}

func (s *Summary) addError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors = append(s.Errors, err)
}

// Total is the number of rename outcomes in the pass.
func (s *Summary) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

func (s *Summary) Renamed() int {
	return s.Counts[rename.Renamed]
}

func (s *Summary) Failed() int {
	n := 0
	for o, c := range s.Counts {
		if o.Failed() {
			n += c
		}
	}
	return n
}

func (s *Summary) Skipped() int {
	n := 0
	for o, c := range s.Counts {
		if o.Skipped() {
			n += c
		}
	}
	return n
}

// Outcomes lists the outcomes seen, in declaration order.
func (s *Summary) Outcomes() []rename.Outcome {
	out := make([]rename.Outcome, 0, len(s.Counts))
	for o := range s.Counts {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Err joins the item-level errors collected during the pass.
func (s *Summary) Err() error {
	return errors.Join(s.Errors...)
}

type pass struct {
	id      string
	trigger database.Trigger
	started time.Time
	summary *Summary
}

func (o *Organizer) startPass(trigger database.Trigger) *pass {
	id := ""
	if o.recorder != nil {
		var err error
		id, err = o.recorder.StartPass(trigger, o.dryRun)
		if err != nil {
			o.logger.Error(component, "Failed to record pass start", err)
			id = ""
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	o.logger.Info(component, "Pass started",
		logging.F("pass", id), logging.F("trigger", trigger), logging.F("dry_run", o.dryRun))
	return &pass{
		id:      id,
		trigger: trigger,
		started: time.Now(),
		summary: newSummary(id, trigger, o.dryRun),
	}
}

func (o *Organizer) finishPass(p *pass, passErr error) (*Summary, error) {
	p.summary.Duration = time.Since(p.started)
	if o.recorder != nil {
		if err := o.recorder.FinishPass(p.id, errors.Join(passErr, p.summary.Err())); err != nil {
			o.logger.Error(component, "Failed to record pass end", err, logging.F("pass", p.id))
		}
	}

	fields := []logging.Field{
		logging.F("pass", p.id),
		logging.F("renamed", p.summary.Renamed()),
		logging.F("skipped", p.summary.Skipped()),
		logging.F("failed", p.summary.Failed()),
		logging.F("deferred", p.summary.Deferred),
		logging.F("duration", p.summary.Duration.Round(time.Millisecond)),
	}
	if passErr != nil {
		o.logger.Error(component, "Pass aborted", passErr, fields...)
		return p.summary, passErr
	}
	o.logger.Info(component, "Pass finished", fields...)
	return p.summary, nil
}

// execute runs req, records the result and counts it.
func (o *Organizer) execute(p *pass, req rename.Request) rename.Result {
	req.DryRun = o.dryRun
	res := o.executor.Execute(req)
	o.record(p, req.Item.ID, res)
	return res
}

// skip records an invalid-input outcome for work that never reached the
// executor, such as an episode with no number.
func (o *Organizer) skip(p *pass, itemID string, kind rename.TargetKind, path string, cause error) {
	res := rename.Result{
		Outcome:    rename.SkippedInvalidInput,
		Kind:       kind,
		SourcePath: path,
		Err:        cause,
	}
	o.logger.Warn(component, "Skipping item",
		logging.F("item", itemID), logging.F("path", path), logging.F("reason", cause))
	o.record(p, itemID, res)
}

func (o *Organizer) record(p *pass, itemID string, res rename.Result) {
	p.summary.add(res.Outcome)
	if o.recorder == nil {
		return
	}
	rec := database.RenameRecord{
		PassID:     p.id,
		ItemID:     itemID,
		Kind:       res.Kind.String(),
		SourcePath: res.SourcePath,
		TargetPath: res.TargetPath,
		Outcome:    res.Outcome.String(),
		DryRun:     o.dryRun,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if _, err := o.recorder.RecordRename(rec); err != nil {
		o.logger.Error(component, "Failed to record rename", err, logging.F("item", itemID))
	}
}
