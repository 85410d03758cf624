package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route template and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipeapi_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration records request latency by method and route template.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recipeapi_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// RecipesCreated counts recipes created.
	RecipesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipeapi_recipes_created_total",
		Help: "Total number of recipes created",
	})

	// LabelsCreated counts tags and ingredients created, by kind and origin
	// (direct for the CRUD endpoints, nested for records created while saving a recipe).
	LabelsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipeapi_labels_created_total",
		Help: "Total number of tags and ingredients created",
	}, []string{"kind", "origin"})

	// ImagesStored counts recipe image uploads by outcome.
	ImagesStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipeapi_images_stored_total",
		Help: "Total number of recipe image uploads",
	}, []string{"outcome"})

	// LoginAttempts counts token requests by outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipeapi_login_attempts_total",
		Help: "Total number of token requests",
	}, []string{"outcome"})
)

// Middleware records request count and latency. Routes are labelled with the
// registered path template so ids do not explode label cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = 500
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes the default registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
