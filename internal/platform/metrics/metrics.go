package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーション固有の Prometheus メトリクスです。
// nil のレシーバでも安全に呼び出せます。
type Metrics struct {
	tokenFetches   *prometheus.CounterVec
	remoteRequests *prometheus.CounterVec
	syncOutcomes   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New はメトリクスを生成して reg に登録します。
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		tokenFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "employee_sync_token_fetches_total",
			Help: "Total number of OAuth2 token endpoint round trips.",
		}, []string{"outcome"}),
		remoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "employee_sync_remote_requests_total",
			Help: "Total number of calls to the remote employee API.",
		}, []string{"operation", "outcome"}),
		syncOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "employee_sync_synchronizations_total",
			Help: "Total number of synchronization attempts per provider.",
		}, []string{"provider", "action", "outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "employee_sync_http_request_duration_seconds",
			Help:    "Duration of inbound HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.tokenFetches, err = register(reg, m.tokenFetches); err != nil {
		return nil, err
	}
	if m.remoteRequests, err = register(reg, m.remoteRequests); err != nil {
		return nil, err
	}
	if m.syncOutcomes, err = register(reg, m.syncOutcomes); err != nil {
		return nil, err
	}
	if m.httpDuration, err = register(reg, m.httpDuration); err != nil {
		return nil, err
	}

	return m, nil
}

// TokenFetched はトークンエンドポイントへの問い合わせ結果を記録します。
func (m *Metrics) TokenFetched(ok bool) {
	if m == nil {
		return
	}
	m.tokenFetches.WithLabelValues(outcome(ok)).Inc()
}

// RemoteRequest は連携先 API 呼び出しの結果を記録します。
func (m *Metrics) RemoteRequest(operation string, ok bool) {
	if m == nil {
		return
	}
	m.remoteRequests.WithLabelValues(operation, outcome(ok)).Inc()
}

// Synchronized は同期処理の結果を記録します。
func (m *Metrics) Synchronized(provider string, isUpdate, ok bool) {
	if m == nil {
		return
	}
	action := "create"
	if isUpdate {
		action = "update"
	}
	m.syncOutcomes.WithLabelValues(provider, action, outcome(ok)).Inc()
}

// ObserveHTTP は受信リクエストの処理時間を記録します。
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// register は登録済みの場合に既存のコレクターを返します。
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
