package httppool

import (
	"net/http"
	"sync"

	"github.com/anvikal/ragchat/internal/config"
)

var (
	once   sync.Once
	client *http.Client
)

// Shared returns the process-wide outbound HTTP client. The Gemini LLM and
// embedding clients both talk to the same host, so sharing one transport
// keeps connections warm across them.
func Shared() *http.Client {
	once.Do(func() {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        config.MaxIdleConns,
				MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
				IdleConnTimeout:     config.IdleConnTimeout,
			},
		}
	})
	return client
}
