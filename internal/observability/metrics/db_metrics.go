package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "open_alerts",
			Help: "Alerts currently open (PENDING or SENT)",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM tool_alerts WHERE alert_status IN ('PENDING', 'SENT')")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "tools_end_of_life",
			Help: "Registry tools currently at END_OF_LIFE",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM master_tools WHERE status = 'END_OF_LIFE'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "stock_below_reorder",
			Help: "Stock records at or below their reorder level",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM tool_stocks WHERE current_stock <= reorder_level")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
