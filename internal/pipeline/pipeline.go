package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ledgerline/ledgerline/internal/admission"
	"github.com/ledgerline/ledgerline/internal/backend"
	"github.com/ledgerline/ledgerline/internal/cache"
	"github.com/ledgerline/ledgerline/internal/extract"
	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/validate"
)

// Invoker routes prompts to inference backends. Satisfied by
// *backend.Router.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, attachment []byte, opts model.InvokeOptions, policy backend.Policy) (*model.RawResponse, string, error)
	Kind(name string) string
}

// Result is the outcome of one document extraction.
type Result struct {
	Statement         *model.Statement
	Report            *model.ValidationReport
	CacheHit          bool
	BackendUsed       string
	Strategy          string
	SensitiveOverride bool
}

// Processor orchestrates the full extraction flow: admission, cache
// lookup, backend invocation, parsing, and validation.
type Processor struct {
	admission *admission.Controller
	cache     *cache.ResponseCache
	router    Invoker
	extractor *extract.Pipeline
	validator *validate.Validator
	rules     *validate.RuleTable
	opts      model.InvokeOptions
	policy    backend.Policy
}

// NewProcessor builds a processor from configuration: one backend per
// config entry, rate limits applied, the rule table loaded (and
// watched if configured), and the cache layered onto disk when a
// cache directory is set.
func NewProcessor(cfg *model.Config) (*Processor, error) {
	var backends []backend.Backend
	for _, bc := range cfg.Backends {
		b, err := backend.New(bc, cfg.Proxy)
		if err != nil {
			// A misconfigured backend (e.g. no API key) drops out of the
			// candidate set; routing falls back to the others.
			log.Printf("pipeline.Processor: backend %s unavailable: %v", bc.Name, err)
			continue
		}
		backends = append(backends, b)
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no usable backends configured")
	}

	router := backend.NewRouter(backends)
	for _, bc := range cfg.Backends {
		if bc.RatePerSecond > 0 {
			router.Limiter().SetRate(bc.Name, bc.RatePerSecond, bc.Burst)
		}
	}

	rules, err := loadRules(cfg.Rules)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
	var store cache.Store
	if cfg.Cache.Dir != "" {
		store = cache.NewLayeredStore(ttl, cfg.Cache.Dir, ttl)
	} else {
		store = cache.NewMemoryStore(ttl, 10*time.Minute)
	}

	return &Processor{
		admission: admission.NewController(cfg.Admission.Threshold()),
		cache:     cache.NewResponseCache(store, ttl, cfg.Cache.MaxEntries),
		router:    router,
		extractor: extract.NewPipeline(),
		validator: validate.NewValidator(rules),
		rules:     rules,
		opts:      cfg.Options,
		policy: backend.Policy{
			Default:              cfg.Routing.Default,
			Fallbacks:            cfg.Routing.Fallbacks,
			AllowSensitiveRemote: cfg.Routing.AllowSensitiveRemote,
			Deadline:             time.Duration(cfg.Routing.DeadlineSeconds) * time.Second,
		},
	}, nil
}

func loadRules(cfg model.RulesConfig) (*validate.RuleTable, error) {
	if cfg.Path == "" {
		return validate.DefaultRuleTable(), nil
	}
	rules, err := validate.LoadRuleTable(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	if cfg.Watch {
		if err := rules.Watch(cfg.Path); err != nil {
			log.Printf("pipeline.Processor: rule watch disabled: %v", err)
		}
	}
	return rules, nil
}

// Process runs the full flow for one document under the configured
// routing policy.
func (p *Processor) Process(ctx context.Context, prompt string, attachment []byte) (*Result, error) {
	return p.ProcessWithPolicy(ctx, prompt, attachment, p.policy)
}

// ProcessWithPolicy runs the full flow under a caller-supplied routing
// policy. Admission covers the whole request lifetime, cache hits
// included; the grant is released on every exit path.
func (p *Processor) ProcessWithPolicy(ctx context.Context, prompt string, attachment []byte, policy backend.Policy) (*Result, error) {
	grant, err := p.admission.Admit(p.router.Kind(policy.Default), len(prompt)+len(attachment), p.opts.MaxTokens)
	if err != nil {
		return nil, err
	}
	defer grant.Release()

	fingerprint := cache.Fingerprint(prompt, attachment, p.opts)
	entry, hit, err := p.cache.GetOrCompute(ctx, fingerprint, func(ctx context.Context) (*cache.Entry, error) {
		return p.compute(ctx, prompt, attachment, policy)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Statement:         entry.Statement,
		Report:            entry.Report,
		CacheHit:          hit,
		BackendUsed:       entry.BackendUsed,
		Strategy:          entry.Strategy,
		SensitiveOverride: entry.SensitiveOverride,
	}, nil
}

func (p *Processor) compute(ctx context.Context, prompt string, attachment []byte, policy backend.Policy) (*cache.Entry, error) {
	resp, backendUsed, err := p.router.Invoke(ctx, prompt, attachment, p.opts, policy)
	if err != nil {
		return nil, err
	}

	statement, strategy, err := p.extractor.Extract(resp)
	if err != nil {
		return nil, err
	}

	validated, report := p.validator.Validate(statement)
	return &cache.Entry{
		Statement:         validated,
		Report:            report,
		BackendUsed:       backendUsed,
		Strategy:          strategy,
		SensitiveOverride: resp.SensitiveOverride,
	}, nil
}

// ParseText runs extraction and validation on an already-obtained
// backend response, bypassing admission, cache, and routing.
func (p *Processor) ParseText(text string) (*Result, error) {
	return Parse(text, p.rules)
}

// Parse is the standalone parse path used when no backends are
// involved: extract and validate a saved response.
func Parse(text string, rules *validate.RuleTable) (*Result, error) {
	extractor := extract.NewPipeline()
	statement, strategy, err := extractor.Extract(&model.RawResponse{Text: text})
	if err != nil {
		return nil, err
	}

	validated, report := validate.NewValidator(rules).Validate(statement)
	return &Result{
		Statement: validated,
		Report:    report,
		Strategy:  strategy,
	}, nil
}

// InvalidateCache drops the cached result for a prompt/attachment
// pair.
func (p *Processor) InvalidateCache(prompt string, attachment []byte) {
	p.cache.Invalidate(cache.Fingerprint(prompt, attachment, p.opts))
}

// InvalidateFingerprint drops the cached result for an already-known
// fingerprint.
func (p *Processor) InvalidateFingerprint(fingerprint string) {
	p.cache.Invalidate(fingerprint)
}

// CacheStats reports cache occupancy and configuration.
func (p *Processor) CacheStats() (size, maxEntries int, ttl time.Duration) {
	return p.cache.Stats()
}

// ClearCache drops every cached result.
func (p *Processor) ClearCache() error {
	return p.cache.Clear()
}

// Committed exposes the admission controller's committed budget.
func (p *Processor) Committed() float64 {
	return p.admission.Committed()
}

// Close releases background resources (the rule-table watcher).
func (p *Processor) Close() {
	p.rules.Close()
}
