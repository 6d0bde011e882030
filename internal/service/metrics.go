package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	directoryCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwarden_directory_cache_lookups_total",
			Help: "Member directory cache lookups by result",
		},
		[]string{"result"},
	)

	moderationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwarden_moderation_actions_total",
			Help: "Applied moderation actions",
		},
		[]string{"action"},
	)

	escalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatwarden_escalations_total",
			Help: "Vote-to-mute threshold escalations applied",
		},
	)

	auditFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwarden_audit_failures_total",
			Help: "Audit append and decrypt failures",
		},
		[]string{"reason"},
	)

	votesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwarden_votes_recorded_total",
			Help: "Recorded votes by identifier namespace",
		},
		[]string{"namespace"},
	)
)
