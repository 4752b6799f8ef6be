package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	responseRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "letter_response_requests_total",
			Help: "POST /api/response requests by outcome.",
		},
		[]string{"outcome"},
	)

	letterPageViewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "letter_page_views_total",
		Help: "Total number of letter page renders.",
	})
)
