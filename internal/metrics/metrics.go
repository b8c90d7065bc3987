package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_appended_total",
		Help: "Messages accepted into the store.",
	})

	MessagesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messaging_messages_rejected_total",
		Help: "Messages rejected before persistence.",
	}, []string{"reason"})

	TypingSignals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_typing_signals_total",
		Help: "Typing presence signals received.",
	})

	ReadMarks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_read_marks_total",
		Help: "Read-marker updates processed.",
	})

	HistoryPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_history_pages_total",
		Help: "History pages served.",
	})
)
