// Package monitoring exports Prometheus collectors for the host.
//
// Collectors are registered on the registerer passed to NewMetrics so the
// server and each test own an isolated registry. A nil *Metrics is valid
// and records nothing, which lets domain packages take metrics optionally.
//
//	reg := prometheus.NewRegistry()
//	metrics := monitoring.NewMetrics(reg)
//	router.Use(monitoring.Middleware(metrics, "/metrics", "/stream"))
//	application.WithMetrics(metrics)
//	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
package monitoring
