package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/sessionkit/internal/app"
)

func registerMetricsRoutes(r *gin.Engine, cfg *app.Config) {
	prom := cfg.Monitoring.Prometheus
	if !prom.Enabled {
		return
	}

	endpoint := prom.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}
	r.GET(endpoint, gin.WrapH(promhttp.Handler()))
}
