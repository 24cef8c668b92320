package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var LogLinesScanned = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fika_log_lines_scanned_total",
		Help: "Number of combat log lines scanned",
	},
)

var DeathEventsParsed = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fika_death_events_parsed_total",
		Help: "Number of entity death lines parsed from combat logs",
	},
)

var LootEventsParsed = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fika_loot_events_parsed_total",
		Help: "Number of loot lines parsed from combat logs",
	},
)

var TradeEventsParsed = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fika_trade_events_parsed_total",
		Help: "Number of trade lines parsed from combat logs",
	},
)

var OutOfWindowDeaths = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fika_out_of_window_deaths_total",
		Help: "Number of deaths whose timestamp fell outside the segment window",
	},
)

var ImportWarnings = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fika_import_warnings_total",
		Help: "Number of warnings raised during session imports",
	},
)

var SessionsImported = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fika_sessions_imported_total",
		Help: "Number of raid sessions imported",
	},
)

var SessionsCleared = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fika_sessions_cleared_total",
		Help: "Number of imported sessions that fully cleared their raid",
	},
)

var SummaryCacheRefreshes = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fika_summary_cache_refreshes_total",
		Help: "Number of session summary cache rebuilds",
	},
)
