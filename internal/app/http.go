package app

import (
	"net"
	"net/http"
	"time"
)

// newBackendHTTPClient returns an HTTP client for the upload/extract backend.
// There is no overall client timeout: uploads may be large and the
// structured extraction step may be slow. Config.RequestTimeout bounds each
// request when set.
func newBackendHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport}
}
