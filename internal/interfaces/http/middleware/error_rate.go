package middleware

import (
	"bufio"
	"net"
	"net/http"
	"sync"
	"time"
)

const defaultErrorRateBuckets = 60

// ErrorRateTracker считает долю ответов 5xx за скользящее окно.
// Окно разбито на корзины по секунде. Реализует port.ErrorRateReader
type ErrorRateTracker struct {
	mu      sync.Mutex
	window  time.Duration
	step    time.Duration
	buckets []errorBucket
	now     func() time.Time
}

type errorBucket struct {
	start  int64 // номер шага
	total  int64
	errors int64
}

// NewErrorRateTracker создает трекер с окном window (по умолчанию минута)
func NewErrorRateTracker(window time.Duration) *ErrorRateTracker {
	if window <= 0 {
		window = time.Minute
	}
	step := window / defaultErrorRateBuckets
	if step <= 0 {
		step = time.Millisecond
	}
	return &ErrorRateTracker{
		window:  window,
		step:    step,
		buckets: make([]errorBucket, defaultErrorRateBuckets),
		now:     time.Now,
	}
}

// Record учитывает ответ с кодом status
func (t *ErrorRateTracker) Record(status int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot := t.now().UnixNano() / int64(t.step)
	bucket := &t.buckets[slot%int64(len(t.buckets))]
	if bucket.start != slot {
		*bucket = errorBucket{start: slot}
	}
	bucket.total++
	if status >= http.StatusInternalServerError {
		bucket.errors++
	}
}

// ErrorRate возвращает процент ответов 5xx за окно; 0 если запросов не было
func (t *ErrorRateTracker) ErrorRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.now().UnixNano() / int64(t.step)
	oldest := current - int64(len(t.buckets)) + 1

	var total, errors int64
	for _, bucket := range t.buckets {
		if bucket.start < oldest || bucket.start > current {
			continue
		}
		total += bucket.total
		errors += bucket.errors
	}
	if total == 0 {
		return 0
	}
	return float64(errors) / float64(total) * 100
}

// Middleware учитывает каждый ответ
func (t *ErrorRateTracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &statusCapture{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		t.Record(wrapped.statusCode)
	})
}

type statusCapture struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusCapture) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusCapture) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hijacker.Hijack()
}
