package httpexec

import (
	"crypto/tls"
	"net/http"
	"net/http/httptrace"
	"time"
)

// TimingInfo records the per-phase wall-clock split times for a single
// request/response cycle. DNS/TCP/TLS splits are optional best-effort
// (§4.8); only TotalTime is guaranteed populated.
type TimingInfo struct {
	DNSLookupTime    time.Duration `json:"dnsLookupTime,omitempty"`
	TCPConnectTime   time.Duration `json:"tcpConnectTime,omitempty"`
	TLSHandshakeTime time.Duration `json:"tlsHandshakeTime,omitempty"`
	TimeToFirstByte  time.Duration `json:"timeToFirstByte,omitempty"`
	TotalTime        time.Duration `json:"totalTime"`
}

// doWithTiming sends req through client with an httptrace.ClientTrace
// wired to populate TimingInfo's optional phase splits.
func doWithTiming(client *http.Client, req *http.Request) (TimingInfo, *http.Response, error) {
	var timing TimingInfo
	start := time.Now()

	var dnsStart, connectStart, tlsStart time.Time
	var connectDone bool
	lastPhaseEnd := start

	trace := &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone: func(httptrace.DNSDoneInfo) {
			now := time.Now()
			timing.DNSLookupTime = now.Sub(dnsStart)
			lastPhaseEnd = now
		},
		ConnectStart: func(string, string) {
			connectStart = time.Now()
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				now := time.Now()
				timing.TCPConnectTime = now.Sub(connectStart)
				connectDone = true
				lastPhaseEnd = now
			}
		},
		TLSHandshakeStart: func() {
			if connectDone {
				tlsStart = time.Now()
			}
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil {
				now := time.Now()
				timing.TLSHandshakeTime = now.Sub(tlsStart)
				lastPhaseEnd = now
			}
		},
		GotFirstResponseByte: func() {
			now := time.Now()
			timing.TimeToFirstByte = now.Sub(lastPhaseEnd)
		},
	}

	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))
	resp, err := client.Do(req)
	timing.TotalTime = time.Since(start)
	return timing, resp, err
}
