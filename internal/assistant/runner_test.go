package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"billbuddy/pos/internal/billing"
	"billbuddy/pos/internal/types"
)

type fakeSource struct {
	mu        sync.Mutex
	listening bool
	stops     int
}

func (f *fakeSource) StartListening() {
	f.mu.Lock()
	f.listening = true
	f.mu.Unlock()
}

func (f *fakeSource) StopListening() {
	f.mu.Lock()
	f.listening = false
	f.stops++
	f.mu.Unlock()
}

func (f *fakeSource) isListening() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listening
}

type fakeSink struct {
	mu      sync.Mutex
	spoken  []string
	cancels int
}

func (f *fakeSink) Speak(text string) {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
}

func (f *fakeSink) Cancel() {
	f.mu.Lock()
	f.cancels++
	f.mu.Unlock()
}

func (f *fakeSink) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.spoken) == 0 {
		return ""
	}
	return f.spoken[len(f.spoken)-1]
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.spoken)
}

type fakeSearcher struct {
	mu      sync.Mutex
	results []types.Product
	err     error
	queries []string
	release chan struct{} // when set, Search blocks until closed
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]types.Product, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	release := f.release
	res, err := f.results, f.err
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, err
}

type fakeBiller struct {
	mu    sync.Mutex
	calls int
	err   error
	last  *billing.Cart
}

func (f *fakeBiller) Generate(ctx context.Context, cart *billing.Cart) (*types.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = cart
	if f.err != nil {
		return nil, f.err
	}
	return &types.Bill{
		ID:           "b1",
		CustomerName: cart.CustomerName,
		VehicleInfo:  cart.VehicleInfo,
		Subtotal:     cart.Subtotal(),
	}, nil
}

func (f *fakeBiller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestRunner(hooks Hooks) (*Runner, *fakeSource, *fakeSink, *fakeSearcher, *fakeBiller) {
	src := &fakeSource{}
	sink := &fakeSink{}
	search := &fakeSearcher{results: []types.Product{
		{ID: "p1", Name: "Brake Pad", SellingPrice: 450},
		{ID: "p2", Name: "Brake Pad Pro", SellingPrice: 700},
	}}
	biller := &fakeBiller{}
	r := NewRunner("s1", src, sink, search, biller, nil, hooks, Options{
		SettleDelay:  5 * time.Millisecond,
		DisplayDelay: 5 * time.Millisecond,
		MaxResults:   5,
	})
	return r, src, sink, search, biller
}

func TestIdleIgnoresUnrelatedSpeech(t *testing.T) {
	r, _, sink, _, _ := newTestRunner(Hooks{})
	r.HandleFinalTranscript("what a lovely day")
	if r.Active() {
		t.Fatal("unrelated speech must not start a sale")
	}
	if sink.count() != 0 {
		t.Fatal("idle mode must not speak at unrecognized input")
	}
}

func TestCommandStartsSaleAfterSettle(t *testing.T) {
	var mu sync.Mutex
	var navigated []string
	r, src, sink, _, _ := newTestRunner(Hooks{
		OnNavigate: func(target string) {
			mu.Lock()
			navigated = append(navigated, target)
			mu.Unlock()
		},
	})

	r.HandleFinalTranscript("create a sell bill")
	if sink.last() != "Creating a new bill. Let me take you to the sales page." {
		t.Fatalf("expected transition prompt, got %q", sink.last())
	}

	waitFor(t, "sale to start", r.Active)
	if sink.last() != "What is the customer's name?" {
		t.Fatalf("expected customer prompt, got %q", sink.last())
	}
	if !src.isListening() {
		t.Fatal("should be listening for the customer name")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(navigated) != 1 || navigated[0] != "/sales" {
		t.Fatalf("expected navigation to /sales, got %v", navigated)
	}
}

func TestVoiceSaleEndToEnd(t *testing.T) {
	var mu sync.Mutex
	fields := map[string]string{}
	var generated []*types.Bill
	r, _, sink, search, biller := newTestRunner(Hooks{
		OnFieldUpdate: func(field, value string) {
			mu.Lock()
			fields[field] = value
			mu.Unlock()
		},
		OnBillGenerated: func(b *types.Bill) {
			mu.Lock()
			generated = append(generated, b)
			mu.Unlock()
		},
	})

	r.StartSale()
	r.HandleFinalTranscript("my name is Raj")
	r.HandleFinalTranscript("Honda Activa 2020")
	r.HandleFinalTranscript("find brake pad")

	waitFor(t, "search results prompt", func() bool {
		return sink.last() == "I found some products. Which one would you like to add?"
	})

	r.HandleFinalTranscript("second")
	r.HandleFinalTranscript("no")

	waitFor(t, "bill generation", func() bool { return biller.callCount() == 1 })

	biller.mu.Lock()
	cart := biller.last
	biller.mu.Unlock()
	if cart.CustomerName != "Raj" || cart.VehicleInfo != "Honda Activa 2020" {
		t.Fatalf("cart header wrong: %q / %q", cart.CustomerName, cart.VehicleInfo)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Product.ID != "p2" {
		t.Fatalf("expected single line for p2, got %#v", cart.Lines)
	}

	mu.Lock()
	if fields["customer_name"] != "Raj" {
		t.Fatalf("field hook missed customer name: %v", fields)
	}
	if len(generated) != 1 {
		t.Fatalf("expected exactly one generated bill, got %d", len(generated))
	}
	mu.Unlock()

	search.mu.Lock()
	if len(search.queries) != 1 || search.queries[0] != "brake pad" {
		t.Fatalf("expected one cleaned search query, got %v", search.queries)
	}
	search.mu.Unlock()

	if r.Active() {
		t.Fatal("runner should be idle after the terminal step")
	}
}

func TestCloseCancelsPendingContinuation(t *testing.T) {
	r, src, sink, _, _ := newTestRunner(Hooks{})

	r.HandleFinalTranscript("create bill")
	spoken := sink.count()
	r.Close()

	time.Sleep(50 * time.Millisecond)
	if r.Active() {
		t.Fatal("closed session must stay idle")
	}
	if sink.count() != spoken {
		t.Fatal("no prompt may be spoken after close")
	}
	if src.isListening() {
		t.Fatal("close must stop listening")
	}
	sink.mu.Lock()
	cancels := sink.cancels
	sink.mu.Unlock()
	if cancels == 0 {
		t.Fatal("close must cancel in-flight speech")
	}
}

func TestCloseMidSearchDropsResults(t *testing.T) {
	r, _, sink, search, _ := newTestRunner(Hooks{})
	release := make(chan struct{})
	search.mu.Lock()
	search.release = release
	search.mu.Unlock()

	r.StartSale()
	r.HandleFinalTranscript("Raj")
	r.HandleFinalTranscript("Honda Activa")
	r.HandleFinalTranscript("brake pad")

	spoken := sink.count()
	r.Close()
	close(release)

	time.Sleep(50 * time.Millisecond)
	if sink.count() != spoken {
		t.Fatal("stale search results must not prompt after close")
	}
	if r.Active() {
		t.Fatal("closed session must stay idle")
	}
}

func TestSearchFailureNotifies(t *testing.T) {
	var mu sync.Mutex
	var notices []string
	r, _, sink, search, _ := newTestRunner(Hooks{
		OnNotice: func(text string) {
			mu.Lock()
			notices = append(notices, text)
			mu.Unlock()
		},
	})
	search.mu.Lock()
	search.err = errors.New("backend down")
	search.results = nil
	search.mu.Unlock()

	r.StartSale()
	r.HandleFinalTranscript("Raj")
	r.HandleFinalTranscript("Honda Activa")
	r.HandleFinalTranscript("brake pad")

	waitFor(t, "failure notice", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notices) == 1
	})
	// the flow degrades to a re-prompt, never a crash
	waitFor(t, "re-prompt", func() bool {
		return sink.last() == "I couldn't find any matching products. What product would you like to add?"
	})
	if !r.Active() {
		t.Fatal("search failure must not end the session")
	}
}

func TestBillFailureNotifiesWithoutBill(t *testing.T) {
	var mu sync.Mutex
	var generated int
	var notices int
	r, _, sink, _, biller := newTestRunner(Hooks{
		OnBillGenerated: func(*types.Bill) {
			mu.Lock()
			generated++
			mu.Unlock()
		},
		OnNotice: func(string) {
			mu.Lock()
			notices++
			mu.Unlock()
		},
	})
	biller.mu.Lock()
	biller.err = errors.New("write failed")
	biller.mu.Unlock()

	r.StartSale()
	r.HandleFinalTranscript("Raj")
	r.HandleFinalTranscript("Honda Activa")
	r.HandleFinalTranscript("brake pad")
	waitFor(t, "results", func() bool {
		return sink.last() == "I found some products. Which one would you like to add?"
	})
	r.HandleFinalTranscript("first")
	r.HandleFinalTranscript("no")

	waitFor(t, "biller call", func() bool { return biller.callCount() == 1 })
	mu.Lock()
	defer mu.Unlock()
	if generated != 0 {
		t.Fatal("failed bill must not fire OnBillGenerated")
	}
	if notices == 0 {
		t.Fatal("failed bill must surface a notice")
	}
}
