// Package metrics records workflow and model request measurements in
// Prometheus form.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spetersoncode/chartflow/client"
	"github.com/spetersoncode/chartflow/internal/retry"
	"github.com/spetersoncode/chartflow/workflow"
)

// Step outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeContract = "contract_violation"
)

// Recorder is a workflow.Observer backed by a private Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	stepRuns     *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	routes       *prometheus.CounterVec
	runs         *prometheus.CounterVec
	requests     *prometheus.CounterVec
	requestTime  *prometheus.HistogramVec
	tokens       *prometheus.CounterVec
	retries      *prometheus.CounterVec
}

// New creates a recorder with its own registry. Go runtime and process
// collectors are registered alongside the chartflow metrics.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartflow_step_runs_total",
			Help: "Workflow step executions by outcome.",
		}, []string{"workflow", "step", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chartflow_step_duration_seconds",
			Help:    "Workflow step latency.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"workflow", "step"}),
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartflow_route_selected_total",
			Help: "Conditional edge decisions.",
		}, []string{"workflow", "from", "to"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartflow_runs_total",
			Help: "Finished workflow runs by termination reason.",
		}, []string{"workflow", "termination"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartflow_model_requests_total",
			Help: "Model requests by operation, provider and outcome.",
		}, []string{"operation", "provider", "outcome"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chartflow_model_request_duration_seconds",
			Help:    "Model request latency including retries.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"operation", "provider"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartflow_model_tokens_total",
			Help: "Tokens consumed by model requests.",
		}, []string{"provider", "direction"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartflow_model_retries_total",
			Help: "Retried model requests.",
		}, []string{"operation", "provider"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.stepRuns, r.stepDuration, r.routes, r.runs,
		r.requests, r.requestTime, r.tokens, r.retries,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// StepFinished implements workflow.Observer.
func (r *Recorder) StepFinished(wf, step string, d time.Duration, err error) {
	r.stepRuns.WithLabelValues(wf, step, outcome(err)).Inc()
	r.stepDuration.WithLabelValues(wf, step).Observe(d.Seconds())
}

// RouteSelected implements workflow.Observer.
func (r *Recorder) RouteSelected(wf, from, to string) {
	r.routes.WithLabelValues(wf, from, to).Inc()
}

// RunFinished implements workflow.Observer.
func (r *Recorder) RunFinished(wf string, reason workflow.TerminationReason, _ time.Duration) {
	r.runs.WithLabelValues(wf, string(reason)).Inc()
}

// RecordRequest records one client event.
func (r *Recorder) RecordRequest(ev client.Event) {
	provider := string(ev.Provider)
	switch ev.Type {
	case client.EventRequestComplete:
		r.requests.WithLabelValues(ev.Operation, provider, OutcomeOK).Inc()
		r.requestTime.WithLabelValues(ev.Operation, provider).Observe(ev.Duration.Seconds())
		if ev.Usage != nil {
			r.tokens.WithLabelValues(provider, "input").Add(float64(ev.Usage.InputTokens))
			r.tokens.WithLabelValues(provider, "output").Add(float64(ev.Usage.OutputTokens))
		}
	case client.EventRequestError:
		r.requests.WithLabelValues(ev.Operation, provider, OutcomeError).Inc()
		r.requestTime.WithLabelValues(ev.Operation, provider).Observe(ev.Duration.Seconds())
	case client.EventRetry:
		if ev.RetryEvent != nil && ev.RetryEvent.Type == retry.EventRetrying {
			r.retries.WithLabelValues(ev.Operation, provider).Inc()
		}
	}
}

// Consume records client events until ch is closed or ctx is done.
func (r *Recorder) Consume(ctx context.Context, ch <-chan client.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			r.RecordRequest(ev)
		}
	}
}

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var ce *workflow.ContractError
	if errors.As(err, &ce) {
		return OutcomeContract
	}
	return OutcomeError
}

var _ workflow.Observer = (*Recorder)(nil)
