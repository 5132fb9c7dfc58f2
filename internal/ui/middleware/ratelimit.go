// ratelimit.go — ограничение частоты попыток входа с одного IP.
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var loginThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "im_login_throttled_total",
	Help: "Общее количество попыток входа, отклонённых ограничителем частоты.",
})

const (
	// limiterCacheSize — максимум отслеживаемых IP.
	limiterCacheSize = 10000
	// limiterIdleTTL — через сколько забывается IP без попыток.
	limiterIdleTTL = 15 * time.Minute
)

// LoginLimiter — token bucket на каждый IP клиента.
// Хранилище ограничено по размеру, записи истекают через limiterIdleTTL.
type LoginLimiter struct {
	limiters *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
	// onReject — ответ на превышение лимита
	onReject http.HandlerFunc
	logger   *slog.Logger
}

// NewLoginLimiter создаёт ограничитель: perMinute попыток в минуту, burst — всплеск.
// onReject вызывается вместо следующего обработчика при превышении лимита.
func NewLoginLimiter(perMinute, burst int, onReject http.HandlerFunc, logger *slog.Logger) *LoginLimiter {
	return &LoginLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](limiterCacheSize, nil, limiterIdleTTL),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		onReject: onReject,
		logger:   logger.With(slog.String("component", "login_limiter")),
	}
}

// Allow расходует токен для IP и сообщает, разрешена ли попытка.
func (l *LoginLimiter) Allow(ip string) bool {
	lim, ok := l.limiters.Get(ip)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
	}
	// Add продлевает TTL записи
	l.limiters.Add(ip, lim)
	return lim.Allow()
}

// Middleware применяет ограничение к обработчику.
func (l *LoginLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if !l.Allow(ip) {
				loginThrottledTotal.Inc()
				l.logger.Warn("Превышен лимит попыток входа", slog.String("client_ip", ip))
				l.onReject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP — адрес клиента из RemoteAddr без порта.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
