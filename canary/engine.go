package canary

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Log-Tools/event-canary/eventstream"
)

// defaultDeliveryWorkers bounds concurrent POSTs when no limit is configured
const defaultDeliveryWorkers = 8

// Result records the outcome of delivering one event batch to one event
// service URL. A local failure (connection refused, serialization error) is
// captured in Err with Success false; it is never surfaced as a returned
// error or panic, so one destination's failure cannot abort another's
// delivery.
type Result struct {
	Success bool   `json:"success"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Body    string `json:"body,omitempty"`
	Err     error  `json:"-"`
}

// PostFunc delivers a batch of JSON events to an event service URL. It is
// the injection point for the HTTP POST collaborator, which tests replace
// with fakes.
type PostFunc func(ctx context.Context, serviceURL string, events []map[string]any) Result

// IntakeAccepted reports whether an event intake status code counts as full
// acceptance. Only 201 (guaranteed success) and 202 (hasty success) qualify;
// 207 means partial acceptance, which callers must treat as failure.
func IntakeAccepted(statusCode int) bool {
	return statusCode == http.StatusCreated || statusCode == http.StatusAccepted
}

// PostEvents POSTs events as a JSON array body to serviceURL and applies
// isSuccess to the response status code. Any local failure is captured in
// the returned Result rather than escalated.
func PostEvents(ctx context.Context, client *http.Client, serviceURL string, events []map[string]any, isSuccess func(int) bool) Result {
	body, err := json.Marshal(events)
	if err != nil {
		return Result{Message: "failed to serialize events: " + err.Error(), Err: err}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, serviceURL, bytes.NewReader(body))
	if err != nil {
		return Result{Message: "failed to create request: " + err.Error(), Err: err}
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return Result{Message: err.Error(), Err: err}
	}
	defer response.Body.Close()

	responseBody, _ := io.ReadAll(response.Body)
	return Result{
		Success: isSuccess(response.StatusCode),
		Status:  response.StatusCode,
		Message: response.Status,
		Body:    string(responseBody),
	}
}

// HTTPPoster returns a PostFunc backed by client and isSuccess. A nil client
// gets a default with a 30 second timeout.
func HTTPPoster(client *http.Client, isSuccess func(int) bool) PostFunc {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return func(ctx context.Context, serviceURL string, events []map[string]any) Result {
		return PostEvents(ctx, client, serviceURL, events, isSuccess)
	}
}

// Engine groups canary events for a set of streams by datacenter-specific
// event service URL and delivers each batch independently
type Engine struct {
	streams         *eventstream.Factory
	datacenters     []string
	deliveryWorkers int
}

// NewEngine creates an Engine delivering to the given datacenters with at
// most deliveryWorkers concurrent POSTs (0 selects the default)
func NewEngine(streams *eventstream.Factory, datacenters []string, deliveryWorkers int) *Engine {
	if deliveryWorkers <= 0 {
		deliveryWorkers = defaultDeliveryWorkers
	}
	return &Engine{
		streams:         streams,
		datacenters:     datacenters,
		deliveryWorkers: deliveryWorkers,
	}
}

// BuildBatches maps every datacenter-specific event service URL to the
// canary events that should be POSTed to it. For each (stream, datacenter)
// pair whose qualified service URL resolves, the stream's canary event is
// appended to that URL's batch; pairs without a qualified URL are skipped,
// since that datacenter simply does not serve the stream's service. Batches
// are keyed by URL, so distinct services resolving to the same URL share a
// batch.
//
// The example event is only looked up for streams that have at least one
// resolvable destination; a stream that is delivered nowhere never costs a
// schema load.
func (e *Engine) BuildBatches(ctx context.Context, streamNames []string) (map[string][]map[string]any, error) {
	batches := make(map[string][]map[string]any)

	for _, streamName := range streamNames {
		stream := e.streams.Stream(streamName)

		var event map[string]any
		for _, datacenter := range e.datacenters {
			serviceURL, ok, err := stream.EventServiceURLForDatacenter(ctx, datacenter)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			if event == nil {
				example, _, err := stream.ExampleEvent(ctx)
				if err != nil {
					return nil, err
				}
				event, err = AssembleEvent(streamName, example)
				if err != nil {
					return nil, err
				}
			}
			batches[serviceURL] = append(batches[serviceURL], event)
		}
	}
	return batches, nil
}

// Deliver POSTs every batch through post, one call per service URL, and
// returns exactly one Result per URL. Destinations are delivered
// concurrently with a bounded worker pool; a failure for one URL never
// prevents the others from being attempted.
func (e *Engine) Deliver(ctx context.Context, batches map[string][]map[string]any, post PostFunc) map[string]Result {
	results := make(map[string]Result, len(batches))
	var mu sync.Mutex

	var group errgroup.Group
	group.SetLimit(e.deliveryWorkers)
	for serviceURL, events := range batches {
		serviceURL, events := serviceURL, events
		group.Go(func() error {
			result := post(ctx, serviceURL, events)
			mu.Lock()
			results[serviceURL] = result
			mu.Unlock()
			return nil
		})
	}
	group.Wait()

	return results
}

// Run builds and delivers canary event batches in one pass. An empty
// streamNames slice covers every stream currently resident in the config
// cache.
func (e *Engine) Run(ctx context.Context, streamNames []string, post PostFunc) (map[string]Result, error) {
	if len(streamNames) == 0 {
		streamNames = e.streams.Config().CachedStreamNames()
	}
	batches, err := e.BuildBatches(ctx, streamNames)
	if err != nil {
		return nil, err
	}
	return e.Deliver(ctx, batches, post), nil
}

// Datacenters returns the datacenters this engine delivers to
func (e *Engine) Datacenters() []string {
	return e.datacenters
}
