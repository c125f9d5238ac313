// Package pipeline sequences a normalization run: it computes the layout
// in memory, turns it into a plan and either applies the plan to the store
// or hands it to an emitter for statement export.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/mushaf/core/cas"
	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
	"github.com/FocuswithJustin/mushaf/core/partition"
	"github.com/FocuswithJustin/mushaf/core/plan"
	"github.com/FocuswithJustin/mushaf/internal/logging"
	"github.com/FocuswithJustin/mushaf/internal/metadata"
	"github.com/FocuswithJustin/mushaf/internal/store"
)

// Step names, in execution order.
const (
	StepSchema      = "schema"
	StepChapters    = "chapters"
	StepVerses      = "verses"
	StepPartitions  = "partitions"
	StepAssign      = "assign"
	StepVerseCounts = "verse_counts"
	StepParents     = "parents"
	StepPageCounts  = "page_counts"
	StepViews       = "views"
	StepInfo        = "info"
)

// StepNames lists every step in execution order.
var StepNames = []string{
	StepSchema, StepChapters, StepVerses, StepPartitions, StepAssign,
	StepVerseCounts, StepParents, StepPageCounts, StepViews, StepInfo,
}

// Input is everything a run computes from.
type Input struct {
	Verses     []partition.Verse // ids 1..N in (chapter, number) order
	Chapters   []metadata.Chapter
	Boundaries partition.Boundaries
	// ExpectedVerses, when non-zero, must equal len(Verses).
	ExpectedVerses int
	RunID          string
	Now            time.Time
}

// Result describes a computed run.
type Result struct {
	RunID  string
	Layout *partition.Layout
	// Verses carry their assigned membership.
	Verses []partition.Verse
}

// Build validates the input, computes the layout and returns the plan that
// materializes it. The input verses are not modified.
func Build(in Input) (*plan.Plan, *Result, error) {
	if in.ExpectedVerses > 0 && len(in.Verses) != in.ExpectedVerses {
		return nil, nil, mushaferrors.NewConfiguration("verses",
			"loaded %d verses, expected %d", len(in.Verses), in.ExpectedVerses)
	}
	if err := metadata.CheckVerseCounts(in.Chapters, in.Verses); err != nil {
		return nil, nil, err
	}

	verses := make([]partition.Verse, len(in.Verses))
	copy(verses, in.Verses)
	layout, err := partition.Compute(verses, in.Boundaries, len(in.Chapters))
	if err != nil {
		return nil, nil, err
	}

	res := &Result{RunID: in.RunID, Layout: layout, Verses: verses}
	if res.RunID == "" {
		res.RunID = uuid.NewString()
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	info, err := runInfo(in, res, now)
	if err != nil {
		return nil, nil, err
	}
	p := buildPlan(in.Chapters, layout, info)
	p.Origin = plan.Origin{RunID: res.RunID, VerseCount: layout.Last}
	return p, res, nil
}

func buildPlan(chapters []metadata.Chapter, l *partition.Layout, info map[string]string) *plan.Plan {
	p := &plan.Plan{}
	p.AddStep(StepSchema).Add(plan.CreateSchema())

	chs := p.AddStep(StepChapters)
	for _, c := range chapters {
		chs.Add(plan.InsertChapter(c.ID, c.Name, c.NameAlt, c.Order, c.Type))
	}

	p.AddStep(StepVerses).Add(plan.LoadVerses())

	parts := p.AddStep(StepPartitions)
	assign := p.AddStep(StepAssign)
	for _, spec := range partition.Specs {
		if spec.Source == partition.SourceIntrinsic {
			continue
		}
		for i, r := range l.Ranges[spec.Kind] {
			parts.Add(plan.InsertPartition(spec.Kind, i+1))
			assign.Add(plan.AssignRange(spec.Kind, i+1, r))
		}
	}

	counts := p.AddStep(StepVerseCounts)
	for _, k := range partition.Kinds {
		for id := 1; id <= l.Sizes[k]; id++ {
			counts.Add(plan.SetVerseCount(k, id, l.VerseCounts[k][id]))
		}
	}

	parents := p.AddStep(StepParents)
	for _, spec := range partition.Specs {
		if len(spec.Parents) == 0 {
			continue
		}
		for id := 1; id <= l.Sizes[spec.Kind]; id++ {
			parents.Add(plan.SetParents(spec.Kind, id, l.Parents[spec.Kind][id]))
		}
	}

	pages := p.AddStep(StepPageCounts)
	for _, spec := range partition.Specs {
		if !spec.PageCount {
			continue
		}
		for id := 1; id <= l.Sizes[spec.Kind]; id++ {
			pages.Add(plan.SetPageCount(spec.Kind, id, l.PageCounts[spec.Kind][id]))
		}
	}

	p.AddStep(StepViews).Add(plan.CreateViews())

	inf := p.AddStep(StepInfo)
	names := make([]string, 0, len(info))
	for name := range info {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		inf.Add(plan.SetInfo(name, info[name]))
	}
	return p
}

// runInfo returns the info rows recorded by a run.
func runInfo(in Input, res *Result, now time.Time) (map[string]string, error) {
	// Map keys marshal sorted, so the digest is stable.
	boundaries, err := json.Marshal(in.Boundaries)
	if err != nil {
		return nil, fmt.Errorf("digest boundaries: %w", err)
	}
	info := map[string]string{
		"run_id":            res.RunID,
		"normalized_at":     now.UTC().Format(time.RFC3339),
		"verse_count":       strconv.Itoa(res.Layout.Last),
		"boundaries_blake3": cas.Blake3Hash(boundaries),
	}
	for _, k := range partition.Kinds {
		info[k.Table()+"_count"] = strconv.Itoa(res.Layout.Sizes[k])
	}
	return info, nil
}

// Emitter receives the plan in statement-export mode. It calls fn around
// each step it writes, as Store.Apply does.
type Emitter interface {
	Emit(ctx context.Context, p *plan.Plan, fn store.StepFunc) error
}

// Options configure Run.
type Options struct {
	Chapters       []metadata.Chapter
	Boundaries     partition.Boundaries
	ExpectedVerses int
	RunID          string
	// Observer narrates each step, applied or emitted. Nil uses LogObserver.
	Observer Observer
	// Emitter, when set, receives the plan instead of the store.
	Emitter Emitter
}

// Run normalizes the raw verses of st. It fails with
// AlreadyNormalizedError before computing anything when normalized tables
// already hold rows.
func Run(ctx context.Context, st *store.Store, opts Options) (*Result, error) {
	if err := st.CheckNotNormalized(ctx); err != nil {
		return nil, err
	}
	verses, err := st.RawVerses(ctx)
	if err != nil {
		return nil, err
	}

	p, res, err := Build(Input{
		Verses:         verses,
		Chapters:       opts.Chapters,
		Boundaries:     opts.Boundaries,
		ExpectedVerses: opts.ExpectedVerses,
		RunID:          opts.RunID,
	})
	if err != nil {
		return nil, err
	}
	ctx = logging.WithRunID(ctx, res.RunID)

	obs := opts.Observer
	if obs == nil {
		obs = LogObserver{}
	}
	total := len(p.Steps)
	var started time.Time
	narrate := func(i int, step *plan.Step, done bool) {
		if !done {
			started = time.Now()
			obs.StepStarted(ctx, step.Name, i+1, total)
			return
		}
		obs.StepFinished(ctx, step.Name, len(step.Ops), time.Since(started))
	}

	if opts.Emitter != nil {
		info, err := st.Info(ctx)
		if err != nil {
			return nil, err
		}
		p.Origin.SourceBlake3 = info["source_blake3"]
		if err := opts.Emitter.Emit(ctx, p, narrate); err != nil {
			return nil, err
		}
		return res, nil
	}

	if err := st.Apply(ctx, p, narrate); err != nil {
		return nil, err
	}
	return res, nil
}
