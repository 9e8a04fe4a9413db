package api

import (
	"cordis-pipeline/internal/api/handler"
	_ "cordis-pipeline/internal/docs"
	"cordis-pipeline/pkg/router"

	httpSwagger "github.com/swaggo/http-swagger"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.GET("/api/v1/datasets", h.ListDatasets)
	r.GET("/api/v1/datasets/*/options", h.GetDatasetOptions)
	r.DELETE("/api/v1/datasets/*/cache", h.InvalidateDataset)

	r.POST("/api/v1/reports", h.CreateReport)
	r.GET("/api/v1/reports", h.ListReports)
	// More specific routes first
	r.GET("/api/v1/reports/*/stages", h.GetReportStages)
	r.GET("/api/v1/reports/*/errors", h.GetReportErrors)
	r.GET("/api/v1/reports/*/export", h.ExportReportRows)
	r.GET("/api/v1/reports/*/files", h.GetReportFiles)
	r.GET("/api/v1/reports/*/files/*", h.DownloadFile)
	// Generic report route last
	r.GET("/api/v1/reports/*", h.GetReport)

	r.Handle("/swagger/*", httpSwagger.WrapHandler)
}
