package feeds

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/sethgrid/pester"
	log "github.com/sirupsen/logrus"
)

// Doer abstracts https://pkg.go.dev/net/http#Client.Do.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPConfig is passed explicitly to everything that talks to dLibra or
// Commons, so there is no process wide TLS or header state.
type HTTPConfig struct {
	// UserAgent is sent with every request.
	UserAgent string
	// Timeout per request.
	Timeout time.Duration
	// MaxRetries is the number of attempts pester makes, at least one.
	MaxRetries int
	// InsecureSkipVerify disables certificate checks; some dLibra instances
	// serve incomplete certificate chains.
	InsecureSkipVerify bool
}

// NewClient returns a retrying HTTP client, which follows redirects, keeps
// cookies and sets the user agent on each request.
func NewClient(cfg HTTPConfig) Doer {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}
	jar, _ := cookiejar.New(nil) // never fails with nil options
	hc := &http.Client{
		Transport: tr,
		Jar:       jar,
		Timeout:   cfg.Timeout,
	}
	client := pester.NewExtendedClient(hc)
	client.Backoff = pester.ExponentialBackoff
	client.MaxRetries = max(cfg.MaxRetries, 1)
	client.RetryOnHTTP429 = true
	client.Timeout = cfg.Timeout
	client.LogHook = func(e pester.ErrEntry) {
		log.WithFields(log.Fields{
			"method":  e.Method,
			"url":     e.URL,
			"attempt": e.Attempt,
			"err":     e.Err,
		}).Warn("request failed")
	}
	return &userAgentDoer{doer: client, userAgent: cfg.UserAgent}
}

type userAgentDoer struct {
	doer      Doer
	userAgent string
}

func (d *userAgentDoer) Do(req *http.Request) (*http.Response, error) {
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	return d.doer.Do(req)
}
