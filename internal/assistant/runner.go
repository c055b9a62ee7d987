package assistant

import (
	"context"
	"log"
	"sync"
	"time"

	"billbuddy/pos/internal/billing"
	"billbuddy/pos/internal/command"
	"billbuddy/pos/internal/convo"
	"billbuddy/pos/internal/events"
	"billbuddy/pos/internal/sched"
	"billbuddy/pos/internal/types"
)

// TranscriptSource controls the speech-to-text capture on the client.
type TranscriptSource interface {
	StartListening()
	StopListening()
}

// SpeechSink plays a prompt on the client. Speak cancels any in-progress
// utterance before starting the new one; at most one is audible at a time.
type SpeechSink interface {
	Speak(text string)
	Cancel()
}

// Searcher is the catalog collaborator.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.Product, error)
}

// Biller persists a finished sale.
type Biller interface {
	Generate(ctx context.Context, cart *billing.Cart) (*types.Bill, error)
}

// Hooks let the hosting surface mirror the conversation: form updates,
// search/selection, navigation, and user-visible notices.
type Hooks struct {
	OnCommand       func(cmd string)
	OnFieldUpdate   func(field, value string)
	OnProductSearch func(query string)
	OnProductSelect func(index int, item types.Product)
	OnNavigate      func(target string)
	OnBillGenerated func(bill *types.Bill)
	OnNotice        func(text string)
}

type Options struct {
	SettleDelay  time.Duration // speak-then-navigate pause after the start command
	DisplayDelay time.Duration // how long the generated bill stays on screen
	MaxResults   int
}

// Runner drives one voice session: it feeds transcripts to the dispatcher
// or the conversation machine and carries out the returned effects. All
// event processing is serialized; async work re-enters through
// generation-guarded continuations so nothing runs after Close.
type Runner struct {
	mu        sync.Mutex
	sessionID string
	machine   *convo.Machine
	cart      *billing.Cart

	source   TranscriptSource
	sink     SpeechSink
	searcher Searcher
	biller   Biller
	hooks    Hooks
	events   *events.Store
	sch      *sched.Scheduler

	opts   Options
	closed bool
}

func NewRunner(sessionID string, src TranscriptSource, sink SpeechSink, searcher Searcher, biller Biller, ev *events.Store, hooks Hooks, opts Options) *Runner {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	return &Runner{
		sessionID: sessionID,
		machine:   convo.New(),
		source:    src,
		sink:      sink,
		searcher:  searcher,
		biller:    biller,
		hooks:     hooks,
		events:    ev,
		sch:       sched.New(),
		opts:      opts,
	}
}

// Active reports whether a sale conversation is in progress.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Field() != convo.FieldNone
}

// HandleFinalTranscript consumes one final transcript from the client.
func (r *Runner) HandleFinalTranscript(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.record("transcript_final", map[string]any{"text": text})

	if r.machine.Field() == convo.FieldNone {
		r.handleIdle(text)
		return
	}
	from := r.machine.Field()
	r.applyTracked(from, r.machine.OnTranscript(text))
}

// HandleInterimTranscript records a still-changing transcript. It drives no
// transitions; only final results do.
func (r *Runner) HandleInterimTranscript(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || text == "" {
		return
	}
	r.record("transcript_interim", map[string]any{"text": text})
}

// handleIdle classifies idle-mode speech. Unrecognized speech is ignored.
func (r *Runner) handleIdle(text string) {
	cmd := command.Classify(text)
	if cmd != command.StartSale {
		return
	}
	metricCommands.WithLabelValues(cmd.String()).Inc()
	r.record("command_recognized", map[string]any{"command": cmd.String()})
	if r.hooks.OnCommand != nil {
		r.hooks.OnCommand(cmd.String())
	}

	r.source.StopListening()
	r.speak(command.StartSalePrompt)

	// Let the prompt settle before navigating so the audio is not cut off,
	// then hand control to the conversation machine.
	r.sch.After(r.opts.SettleDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || r.machine.Field() != convo.FieldNone {
			return
		}
		if r.hooks.OnNavigate != nil {
			r.hooks.OnNavigate("/sales")
		}
		r.cart = &billing.Cart{}
		r.applyTracked(convo.FieldNone, r.machine.Start())
	})
}

// StartSale begins the conversation directly, without a spoken trigger.
func (r *Runner) StartSale() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.machine.Field() != convo.FieldNone {
		return
	}
	r.cart = &billing.Cart{}
	r.applyTracked(convo.FieldNone, r.machine.Start())
}

// Close tears the session down: stops listening, cancels speech and every
// pending continuation, and resets the machine. Safe to call twice.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.sch.CancelAll()
	r.source.StopListening()
	r.sink.Cancel()
	r.machine.Reset()
	r.cart = nil
	r.record("session_closed", nil)
}

// applyTracked applies effects and records the state transition, or a
// re-prompt when the field did not move.
func (r *Runner) applyTracked(from convo.Field, effs []convo.Effect) {
	r.apply(effs)
	to := r.machine.Field()
	if from != to {
		metricTransitions.WithLabelValues(from.String(), to.String()).Inc()
		return
	}
	if from == convo.FieldNone {
		return
	}
	for _, e := range effs {
		if _, ok := e.(convo.SpeakEffect); ok {
			metricReprompts.Inc()
			break
		}
	}
}

// apply carries out machine effects in order. Caller holds the lock.
func (r *Runner) apply(effs []convo.Effect) {
	for _, eff := range effs {
		switch e := eff.(type) {
		case convo.StopListenEffect:
			r.source.StopListening()

		case convo.SpeakEffect:
			r.speak(e.Text)

		case convo.ListenEffect:
			r.source.StartListening()

		case convo.FieldUpdateEffect:
			r.applyFieldUpdate(e)

		case convo.SearchEffect:
			r.startSearch(e.Query)

		case convo.SelectEffect:
			if r.cart != nil {
				r.cart.AddProduct(e.Item)
			}
			r.record("product_selected", map[string]any{"index": e.Index, "product_id": e.Item.ID})
			if r.hooks.OnProductSelect != nil {
				r.hooks.OnProductSelect(e.Index, e.Item)
			}

		case convo.GenerateEffect:
			r.generateBill()
		}
	}
}

func (r *Runner) applyFieldUpdate(e convo.FieldUpdateEffect) {
	if r.cart != nil {
		switch e.Field {
		case convo.FieldCustomerName:
			r.cart.CustomerName = e.Value
		case convo.FieldVehicleInfo:
			r.cart.VehicleInfo = e.Value
		}
	}
	r.record("field_update", map[string]any{"field": e.Field.String(), "value": e.Value})
	if r.hooks.OnFieldUpdate != nil {
		r.hooks.OnFieldUpdate(e.Field.String(), e.Value)
	}
}

// startSearch runs the catalog query off the event path and re-enters with
// the results, unless the session died in the meantime.
func (r *Runner) startSearch(query string) {
	r.record("product_search", map[string]any{"query": query})
	if r.hooks.OnProductSearch != nil {
		r.hooks.OnProductSearch(query)
	}
	gen := r.sch.Gen()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		items, err := r.searcher.Search(ctx, query, r.opts.MaxResults)
		if err != nil {
			log.Printf("[assistant] search sid=%s query=%q: %v", r.sessionID, query, err)
			items = nil
		}
		r.deliverResults(gen, items, err)
	}()
}

func (r *Runner) deliverResults(gen uint64, items []types.Product, searchErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.sch.LiveAt(gen) {
		return
	}
	if searchErr != nil {
		r.record("search_failed", map[string]any{"error": searchErr.Error()})
		r.notice("Product search failed. Please try again.")
	}
	r.record("search_results", map[string]any{"count": len(items)})
	from := r.machine.Field()
	r.applyTracked(from, r.machine.OnSearchResults(items))
}

// generateBill fires the terminal effect exactly once per trigger. The
// billing transaction is all-or-nothing; on failure the user gets a notice
// and nothing is assumed committed.
func (r *Runner) generateBill() {
	cart := r.cart
	if cart == nil || cart.Empty() {
		r.notice("There is nothing on the bill yet.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	bill, err := r.biller.Generate(ctx, cart)
	if err != nil {
		log.Printf("[assistant] generate bill sid=%s: %v", r.sessionID, err)
		r.record("bill_failed", map[string]any{"error": err.Error()})
		r.notice("Bill could not be saved. Please try again.")
		return
	}
	r.cart = nil
	metricBillsGenerated.Inc()
	r.record("bill_generated", map[string]any{"bill_id": bill.ID, "subtotal": bill.Subtotal})
	if r.hooks.OnBillGenerated != nil {
		r.hooks.OnBillGenerated(bill)
	}
	r.sch.After(r.opts.DisplayDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			return
		}
		if r.hooks.OnNavigate != nil {
			r.hooks.OnNavigate("/bills/" + bill.ID)
		}
	})
}

func (r *Runner) speak(text string) {
	r.record("speak", map[string]any{"text": text})
	r.sink.Speak(text)
}

func (r *Runner) notice(text string) {
	if r.hooks.OnNotice != nil {
		r.hooks.OnNotice(text)
	}
	r.speak(text)
}

func (r *Runner) record(typ string, payload map[string]any) {
	if r.events != nil {
		r.events.Append(r.sessionID, typ, payload)
	}
}
