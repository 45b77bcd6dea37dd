package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncPollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "psicologo_client",
			Name:      "sync_polls_total",
			Help:      "Poll ticks executed by the message synchronization loop.",
		},
	)

	messagesMergedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "psicologo_client",
			Name:      "messages_merged_total",
			Help:      "Messages merged into the visible list by the sync loop.",
		},
	)

	staleResponsesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "psicologo_client",
			Name:      "stale_responses_dropped_total",
			Help:      "Fetch results discarded because the session epoch changed.",
		},
	)

	chatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "psicologo_client",
			Name:      "chat_turns_total",
			Help:      "Chat turns by outcome.",
		},
		[]string{"result"},
	)

	dashboardFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "psicologo_client",
			Name:      "dashboard_fallbacks_total",
			Help:      "Dashboard fetches that fell back to the privileged aggregate.",
		},
	)
)
