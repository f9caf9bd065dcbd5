package portal_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-portal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := portal.NewMetrics(
		portal.WithMetricsRegistry(registry),
		portal.WithMetricsNamespace("test"),
	)

	ctx := context.Background()
	require.NoError(t, metrics.Record(ctx, portal.ActivityEvent{EventType: portal.ActivityEventLoginSuccess}))
	require.NoError(t, metrics.Record(ctx, portal.ActivityEvent{EventType: portal.ActivityEventLoginSuccess}))
	require.NoError(t, metrics.Record(ctx, portal.ActivityEvent{EventType: portal.ActivityEventLogout}))

	count, err := testutil.GatherAndCount(registry, "test_activity_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Same(t, registry, metrics.Registry())
}

func TestMetrics_DefaultRegistriesAreIndependent(t *testing.T) {
	first := portal.NewMetrics()
	second := portal.NewMetrics()

	require.NoError(t, first.Record(context.Background(), portal.ActivityEvent{EventType: portal.ActivityEventSignup}))

	count, err := testutil.GatherAndCount(second.Registry(), "portal_activity_events_total")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMetrics_MiddlewareKeepsMethodLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := portal.NewMetrics(
		portal.WithMetricsRegistry(registry),
		portal.WithMetricsNamespace("test"),
	)

	app := fiber.New()
	app.Use(metrics.Middleware())
	app.Post("/submit", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusSeeOther) })
	app.Get("/submit", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/submit", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	for i := 0; i < 3; i++ {
		resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/submit", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	families, err := registry.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "test_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "method" {
					counts[label.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}

	assert.Equal(t, map[string]float64{
		fiber.MethodPost: 1,
		fiber.MethodGet:  3,
	}, counts)
}
