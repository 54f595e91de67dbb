package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lovesim_registrations_total",
		Help: "Total number of successful user registrations.",
	})
	loginsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lovesim_logins_total",
		Help: "Total number of successful logins.",
	})
	choicesMadeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lovesim_choices_made_total",
		Help: "Total number of successfully applied story choices.",
	})
	purchasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lovesim_story_purchases_total",
		Help: "Total number of premium story purchases.",
	})
	codesRedeemedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lovesim_diamond_codes_redeemed_total",
		Help: "Total number of redeemed diamond codes.",
	})
)
