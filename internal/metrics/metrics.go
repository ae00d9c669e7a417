// Package metrics defines the Prometheus instrumentation surface. All
// metrics are registered on the default registry and exposed via /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgcscout_http_requests_total",
		Help: "Total HTTP requests processed, by method, path, and status code.",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request latency by method and route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vgcscout_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// HTTPRequestsInFlight gauges concurrently handled requests.
	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vgcscout_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})

	// SpreadExtractionsTotal counts extraction outcomes by provenance tag.
	// This is the core quality signal: a rising default_* share means the
	// notation matchers are losing ground against article formats.
	SpreadExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgcscout_spread_extractions_total",
		Help: "EV spread extraction outcomes by provenance tag.",
	}, []string{"provenance"})

	// ArticlesAnalyzedTotal counts finished article analyses by outcome.
	ArticlesAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgcscout_articles_analyzed_total",
		Help: "Completed article analyses by final status.",
	}, []string{"status"})

	// GeminiRequestsTotal counts Gemini API calls by kind and outcome.
	GeminiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgcscout_gemini_requests_total",
		Help: "Gemini API calls by request kind (article, image) and outcome.",
	}, []string{"kind", "outcome"})

	// GeminiRequestDuration tracks Gemini API latency by request kind.
	GeminiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vgcscout_gemini_request_duration_seconds",
		Help:    "Gemini API call latency in seconds.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"kind"})

	// TranslationRequestsTotal counts Translation API calls by outcome.
	TranslationRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgcscout_translation_requests_total",
		Help: "Google Translation API calls by outcome.",
	}, []string{"outcome"})

	// TranslationRequestDuration tracks Translation API latency.
	TranslationRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vgcscout_translation_request_duration_seconds",
		Help:    "Google Translation API call latency in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// AnalysisCacheHitsTotal counts cache lookups by result.
	AnalysisCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgcscout_analysis_cache_lookups_total",
		Help: "Analysis cache lookups by result (hit, miss, expired).",
	}, []string{"result"})

	// ArticleFetchesTotal counts article downloads by source platform and outcome.
	ArticleFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vgcscout_article_fetches_total",
		Help: "Article fetch attempts by source platform and outcome.",
	}, []string{"source", "outcome"})

	// AuthFailuresTotal counts rejected admin requests.
	AuthFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vgcscout_auth_failures_total",
		Help: "Requests rejected by admin authentication.",
	})

	// ArticleDatabaseSize gauges stored articles.
	ArticleDatabaseSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vgcscout_articles_stored",
		Help: "Number of articles in the database.",
	})

	// TeamsStored gauges extracted teams.
	TeamsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vgcscout_teams_stored",
		Help: "Number of extracted teams in the database.",
	})

	// TeamPokemonByProvenance gauges stored team slots by EV provenance.
	TeamPokemonByProvenance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vgcscout_team_pokemon_by_provenance",
		Help: "Stored team slots grouped by EV source tag.",
	}, []string{"ev_source"})

	// AnalysisJobsPending gauges queued, not yet processed jobs.
	AnalysisJobsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vgcscout_analysis_jobs_pending",
		Help: "Analysis jobs waiting in the queue.",
	})
)
