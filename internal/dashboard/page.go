// Package dashboard holds the per-role views over the evaluation API: paged
// cards with workflow-derived state, guarded mutations and toast feedback.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spec-kit/evaluation-service/internal/client"
	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/session"
	"github.com/spec-kit/evaluation-service/internal/workflow"
)

// ErrBusy is returned when the same action is already in flight.
var ErrBusy = errors.New("action already in progress")

const genericLoadFailure = "Failed to load evaluations"

// Card is one evaluation as a dashboard shows it.
type Card struct {
	Evaluation domain.Evaluation
	Badge      string
	Tone       string
	Steps      []workflow.Step
	FinalScore int
	Actions    workflow.Affordances
}

// Page is one page of cards. Page is 1-based.
type Page struct {
	Cards []Card
	Total int
	Page  int
	Pages int
}

// Options carries collaborators shared by every dashboard.
type Options struct {
	Toaster *Toaster
	// Store is cleared when the API stops accepting the session's token.
	Store session.Store
}

func newCard(actor domain.Actor, e domain.Evaluation) Card {
	return Card{
		Evaluation: e,
		Badge:      workflow.Badge(e.Status),
		Tone:       workflow.BadgeTone(e.Status),
		Steps:      workflow.Steps(e.Status, e.HasReport()),
		FinalScore: workflow.FinalScore(e.Rating, e.HRRatingAdjustment),
		Actions:    workflow.AffordancesFor(actor, &e),
	}
}

func newPage(actor domain.Actor, res *client.ListResult, page, size int) *Page {
	p := &Page{Total: res.Total, Page: page, Pages: pageCount(res.Total, size)}
	p.Cards = make([]Card, 0, len(res.Evaluations))
	for _, e := range res.Evaluations {
		p.Cards = append(p.Cards, newCard(actor, e))
	}
	return p
}

func pageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// busyFlags allows one in-flight call per action name.
type busyFlags struct {
	mu   sync.Mutex
	held map[string]bool
}

func (b *busyFlags) acquire(action string) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.held == nil {
		b.held = map[string]bool{}
	}
	if b.held[action] {
		return nil, fmt.Errorf("%s: %w", action, ErrBusy)
	}
	b.held[action] = true
	return func() {
		b.mu.Lock()
		delete(b.held, action)
		b.mu.Unlock()
	}, nil
}

// Busy reports whether action is in flight.
func (b *busyFlags) Busy(action string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.held[action]
}

// base is embedded by every dashboard.
type base struct {
	actor  domain.Actor
	opts   Options
	flags  busyFlags
	mu     sync.Mutex
	page   *Page
	search string
}

func newBase(s *session.Session, role domain.Role, opts Options) (*base, error) {
	if err := session.Guard(s, role); err != nil {
		return nil, err
	}
	if opts.Toaster == nil {
		opts.Toaster = NewToaster()
	}
	return &base{actor: s.Actor(), opts: opts}, nil
}

// Toasts exposes the dashboard's notifications.
func (b *base) Toasts() *Toaster { return b.opts.Toaster }

// Current returns the last loaded page.
func (b *base) Current() *Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page
}

// Busy reports whether the named action is in flight.
func (b *base) Busy(action string) bool { return b.flags.Busy(action) }

func (b *base) store(p *Page) {
	b.mu.Lock()
	b.page = p
	b.mu.Unlock()
}

// rejectInput toasts a validation failure without any network call.
func (b *base) rejectInput(err error) error {
	var v *workflow.Violation
	if errors.As(err, &v) {
		b.opts.Toaster.Error(v.Message)
	} else {
		b.opts.Toaster.Error(err.Error())
	}
	return err
}

// failed toasts a generic message and drops the session on a rejected credential.
func (b *base) failed(err error, message string) error {
	b.opts.Toaster.Error(message)
	if client.IsUnauthorized(err) {
		if b.opts.Store != nil {
			_ = b.opts.Store.Clear()
		}
		return fmt.Errorf("%w: %w", session.ErrUnauthenticated, err)
	}
	return err
}

func (b *base) loaded(ctx context.Context, fetch func(context.Context) (*client.ListResult, error), page, size int) (*Page, error) {
	res, err := fetch(ctx)
	if err != nil {
		return nil, b.failed(err, genericLoadFailure)
	}
	p := newPage(b.actor, res, page, size)
	b.store(p)
	return p, nil
}

// refreshError filters the error of a re-fetch that follows a successful
// mutation. Only a lost session is reported; other failures were already toasted.
func refreshError(err error) error {
	if errors.Is(err, session.ErrUnauthenticated) {
		return fmt.Errorf("refresh after update: %w", err)
	}
	return nil
}

func (b *base) lastPage() int {
	if p := b.Current(); p != nil {
		return p.Page
	}
	return 1
}
