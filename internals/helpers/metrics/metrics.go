package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsScheduled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lurnex_sessions_scheduled_total",
		Help: "Class sessions persisted, by scheduling mode.",
	}, []string{"mode"})

	SessionsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lurnex_sessions_settled_total",
		Help: "Settlement calls, by outcome (completed, cancelled, edited, rejected).",
	}, []string{"outcome"})

	MeetingLinkFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lurnex_meeting_link_failures_total",
		Help: "Failed meeting-link acquisitions.",
	})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lurnex_notification_failures_total",
		Help: "Notices that could not be delivered, by kind.",
	}, []string{"kind"})
)

// Handler exposes the default registry on Fiber.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
