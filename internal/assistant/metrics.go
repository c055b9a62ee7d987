package assistant

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_assistant_commands_total",
		Help: "Recognized voice commands",
	}, []string{"command"})

	metricTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_assistant_field_transitions_total",
		Help: "Conversation field transitions",
	}, []string{"from", "to"})

	metricReprompts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_assistant_reprompts_total",
		Help: "Clarifying re-prompts for unrecognized input",
	})

	metricBillsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_assistant_bills_generated_total",
		Help: "Bills generated through the voice flow",
	})
)
