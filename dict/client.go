package dict

import (
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"
)

type NetworkMetrics struct {
	DNS        time.Duration
	TLS        time.Duration
	TTFB       time.Duration
	Total      time.Duration
	ConnReused bool
}

// TracedClient wraps http.Client with httptrace timings so each lookup
// can be logged with where its latency went.
type TracedClient struct {
	client *http.Client
}

func NewTracedClient(timeout time.Duration) *TracedClient {
	return &TracedClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

type TracedResponse struct {
	Body       []byte
	StatusCode int
	Header     http.Header
	Metrics    *NetworkMetrics
}

func (c *TracedClient) Do(req *http.Request) (*TracedResponse, error) {
	metrics := &NetworkMetrics{}
	var dnsStart, tlsStart, reqStart time.Time

	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			metrics.ConnReused = info.Reused
		},
		DNSStart:          func(_ httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone:           func(_ httptrace.DNSDoneInfo) { metrics.DNS = time.Since(dnsStart) },
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone:  func(_ tls.ConnectionState, _ error) { metrics.TLS = time.Since(tlsStart) },
		GotFirstResponseByte: func() {
			metrics.TTFB = time.Since(reqStart)
		},
	}

	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))
	reqStart = time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	metrics.Total = time.Since(reqStart)

	return &TracedResponse{
		Body:       body,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Metrics:    metrics,
	}, nil
}
