package services

import "github.com/prometheus/client_golang/prometheus"

var (
	formsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "formflow_forms_created_total",
		Help: "Number of forms created.",
	})
	formsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "formflow_forms_published_total",
		Help: "Number of draft forms moved to published.",
	})
	responsesSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "formflow_responses_submitted_total",
		Help: "Number of responses accepted on public forms.",
	})
)

func init() {
	prometheus.MustRegister(formsCreated, formsPublished, responsesSubmitted)
}
