package metrics

import (
	"time"

	"github.com/labstack/echo-contrib/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	gaugeMetricType        = "gauge"
	counterVecMetricType   = "counter_vec"
	histogramVecMetricType = "histogram_vec"
)

// See the init func for proper descriptions and prometheus names!
// In case you add a metric here later, make sure to include it in the
// MetricList method or you'll going to have a bad time.
var (
	metrics struct {
		startTime         *prometheus.Metric
		transactionsCnt   *prometheus.Metric
		airdropsCnt       *prometheus.Metric
		rpcErrorsCnt      *prometheus.Metric
		processingTime    *prometheus.Metric
		computeUnitsPerTx *prometheus.Metric
	}

	metricList []*prometheus.Metric
)

// Needed by echo-contrib so echo can register and collect these metrics
func MetricList() []*prometheus.Metric {
	return metricList
}

func init() {
	initMetric(&metrics.startTime, &prometheus.Metric{
		ID:          "startTime",
		Name:        "start_time",
		Description: "node start time",
		Type:        gaugeMetricType,
	})
	initMetric(&metrics.transactionsCnt, &prometheus.Metric{
		ID:          "transactionsCnt",
		Name:        "transactions",
		Description: "processed transactions by outcome",
		Type:        counterVecMetricType,
		Args:        []string{"status"},
	})
	initMetric(&metrics.airdropsCnt, &prometheus.Metric{
		ID:          "airdropsCnt",
		Name:        "airdrops",
		Description: "airdrop requests served",
		Type:        counterVecMetricType,
		Args:        []string{"status"},
	})
	initMetric(&metrics.rpcErrorsCnt, &prometheus.Metric{
		ID:          "rpcErrorsCnt",
		Name:        "rpc_errors",
		Description: "rpc requests rejected before execution",
		Type:        counterVecMetricType,
		Args:        []string{"method"},
	})
	initMetric(&metrics.processingTime, &prometheus.Metric{
		ID:          "processingTime",
		Name:        "processing_time",
		Description: "the time it took to process the request",
		Type:        histogramVecMetricType,
		Args:        []string{"method"},
	})
	initMetric(&metrics.computeUnitsPerTx, &prometheus.Metric{
		ID:          "computeUnitsPerTx",
		Name:        "compute_units_per_tx",
		Description: "compute units consumed per transaction",
		Type:        histogramVecMetricType,
		Args:        []string{"status"},
	})
}

func initMetric(dest **prometheus.Metric, metric *prometheus.Metric) {
	*dest = metric
	metricList = append(metricList, metric)
}

func InitStartTime() {
	metrics.startTime.MetricCollector.(prom.Gauge).Set(float64(time.Now().UTC().Unix()))
}
