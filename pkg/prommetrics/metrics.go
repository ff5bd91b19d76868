package prommetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RocketNamespace is the namespace for all deploy-and-seed metrics
const RocketNamespace = "rocketanchor"

var (
	SeedSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: RocketNamespace,
		Name:      "seed_submissions",
		Help:      "Count of seed transactions submitted to the network",
	})
	SeedConfirmations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: RocketNamespace,
		Name:      "seed_confirmations",
		Help:      "Count of seed transactions confirmed at the configured commitment",
	})
	SeedResolutionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: RocketNamespace,
		Name:      "seed_resolution_errors",
		Help:      "Count of seed calls aborted by placeholder resolution failures",
	})
	SeedEventsDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: RocketNamespace,
		Name:      "seed_events_decoded",
		Help:      "Count of structured events decoded from confirmed transaction logs",
	})
	ProgramsDeployed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: RocketNamespace,
		Name:      "programs_deployed",
		Help:      "Count of program artifacts deployed by the external deploy tool",
	})
)
