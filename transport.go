package prospect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
)

// browserUserAgent is sent on every outbound fetch so company sites serve the
// same markup they would serve a regular visitor.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// newBrowserTransport returns a transport whose TLS handshake mimics Chrome
// through utls. HelloChrome_Auto would negotiate H2, so the ALPN extension is
// pinned to http/1.1 before the handshake to keep the response path on the
// plain http.Transport body handling.
func newBrowserTransport() http.RoundTripper {
	transport := &http.Transport{}
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		tcpConn, err := (&net.Dialer{}).DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		sniHost, _, err := net.SplitHostPort(addr)
		if err != nil {
			sniHost = addr
		}

		uTlsConfig := &utls.Config{
			ServerName: sniHost,
		}

		uConn := utls.UClient(tcpConn, uTlsConfig, utls.HelloChrome_Auto)

		if err := uConn.BuildHandshakeState(); err != nil {
			return nil, fmt.Errorf("buildling handshake state : %w", err)
		}

		foundALPN := false
		for _, ext := range uConn.Extensions {
			if alpnExt, ok := ext.(*utls.ALPNExtension); ok {
				alpnExt.AlpnProtocols = []string{"http/1.1"}
				foundALPN = true
				break
			}
		}

		if !foundALPN {
			return nil, errors.New("could not find ALPNExtension")
		}

		if err := uConn.HandshakeContext(ctx); err != nil {
			tcpConn.Close()
			return nil, err
		}

		return uConn, nil
	}
	return transport
}

// newBrowserClient returns the HTTP client used for search and scrape
// fetches. Redirects are followed; the 15 second timeout bounds the whole
// exchange.
func newBrowserClient() *http.Client {
	return &http.Client{
		Transport: newBrowserTransport(),
		Timeout:   15 * time.Second,
	}
}
