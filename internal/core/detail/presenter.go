package detail

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pvtools/casedup/internal/core/model"
)

// CandidateRepository loads duplicate candidates by id.
type CandidateRepository interface {
	CandidateByID(ctx context.Context, id uint) (*model.DuplicateCandidate, error)
}

// CaseLookup fetches the minimal case projection shown in the panels.
type CaseLookup interface {
	CaseSummary(ctx context.Context, caseID string) (*model.CaseSummary, error)
}

// Presenter drives the detail view through its states. Every Load bumps a
// generation counter and stamps the requests it spawns; responses arriving
// for a superseded generation are discarded, so switching candidates while
// fetches are in flight can never surface stale data.
type Presenter struct {
	repo  CandidateRepository
	cases CaseLookup

	mu   sync.Mutex
	gen  uint64
	view View
}

func NewPresenter(repo CandidateRepository, cases CaseLookup) *Presenter {
	return &Presenter{
		repo:  repo,
		cases: cases,
		view:  View{State: StateIdle},
	}
}

// Load starts fetching the candidate and, once it arrives, both case
// summaries in parallel. It returns immediately; observe progress via View.
func (p *Presenter) Load(ctx context.Context, candidateID uint) {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.view = View{State: StateLoading}
	p.mu.Unlock()

	go p.load(ctx, gen, candidateID)
}

// View returns the current snapshot. The returned value must not be
// mutated by callers; the presenter replaces rather than edits it.
func (p *Presenter) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Close resets the presenter and invalidates any in-flight fetches.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.view = View{State: StateIdle}
}

func (p *Presenter) load(ctx context.Context, gen uint64, candidateID uint) {
	candidate, err := p.repo.CandidateByID(ctx, candidateID)
	if err != nil {
		p.publish(gen, View{State: StateError, Error: err.Error()})
		return
	}

	p.publish(gen, View{State: StateContent, Candidate: ContentView(candidate)})

	// Summary fetch failures degrade to dashes; only successes are applied.
	g, gctx := errgroup.WithContext(ctx)
	for slot, caseID := range map[int]string{1: candidate.CaseID1, 2: candidate.CaseID2} {
		slot, caseID := slot, caseID
		g.Go(func() error {
			if summary, err := p.cases.CaseSummary(gctx, caseID); err == nil {
				p.applySummary(gen, slot, summary)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Presenter) publish(gen uint64, view View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	p.view = view
}

func (p *Presenter) applySummary(gen uint64, slot int, summary *model.CaseSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.view.State != StateContent || p.view.Candidate == nil {
		return
	}
	// Copy-on-write keeps previously returned snapshots stable.
	updated := *p.view.Candidate
	updated.applySummary(slot, summary)
	p.view = View{State: StateContent, Candidate: &updated}
}

// Build is the synchronous form used by request handlers: it loads the
// candidate and waits for both summary fetches before returning the
// content view. Summary errors still degrade silently to dashes.
func Build(ctx context.Context, repo CandidateRepository, cases CaseLookup, candidateID uint) (*CandidateView, error) {
	candidate, err := repo.CandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	view := ContentView(candidate)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for slot, caseID := range map[int]string{1: candidate.CaseID1, 2: candidate.CaseID2} {
		slot, caseID := slot, caseID
		g.Go(func() error {
			if summary, err := cases.CaseSummary(gctx, caseID); err == nil {
				mu.Lock()
				view.applySummary(slot, summary)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return view, nil
}
