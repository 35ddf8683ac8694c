package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

func IncTransactionsCnt(status string) {
	metrics.transactionsCnt.MetricCollector.(*prom.CounterVec).WithLabelValues(status).Inc()
}

func IncAirdropsCnt(status string) {
	metrics.airdropsCnt.MetricCollector.(*prom.CounterVec).WithLabelValues(status).Inc()
}

func IncRpcErrorsCnt(method string) {
	metrics.rpcErrorsCnt.MetricCollector.(*prom.CounterVec).WithLabelValues(method).Inc()
}

func ObserveProcessingTime(method string, d time.Duration) {
	metrics.processingTime.MetricCollector.(*prom.HistogramVec).WithLabelValues(method).Observe(float64(d.Milliseconds()))
}

func ObserveComputeUnitsPerTx(status string, units uint64) {
	metrics.computeUnitsPerTx.MetricCollector.(*prom.HistogramVec).WithLabelValues(status).Observe(float64(units))
}
