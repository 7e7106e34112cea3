package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)
	s.echo.GET(serviceWorkerPath, s.serviceWorker)

	api := s.echo.Group("/api/v1")

	pages := api.Group("/pages")
	pages.GET("", s.listPages)
	pages.GET("/current", s.currentPage)
	pages.PUT("/current/:id", s.switchPage)

	api.GET("/widget", s.widgetStatus)

	admin := api.Group("/offline")
	admin.Use(s.middleware.Admin.RequireAdmin())
	admin.GET("/status", s.offlineStatus)
	admin.POST("/install", s.installOfflineCache)
	admin.GET("/keys", s.listStoreKeys)
	admin.GET("/stores", s.listStores)
	admin.DELETE("/stores/:name", s.deleteStore)
}
