package httpclient

import (
	"net/http"
	"sync"
	"time"
)

// DefaultTimeout bounds every outbound provider call
const DefaultTimeout = 15 * time.Second

// New creates an HTTP client tuned for provider APIs
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

var (
	shared     *http.Client
	sharedOnce sync.Once
)

// Shared returns the process-wide provider client. http.Client is safe for
// concurrent use, so one instance serves every channel.
func Shared() *http.Client {
	sharedOnce.Do(func() {
		shared = New(DefaultTimeout)
	})
	return shared
}
