package wanikani

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPDoer is the subset of *http.Client the client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// loggingDoer records every remote call once it completes.
type loggingDoer struct {
	next   HTTPDoer
	logger logrus.FieldLogger
}

func (d *loggingDoer) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := d.next.Do(req)

	fields := logrus.Fields{
		"method":   req.Method,
		"path":     req.URL.Path,
		"duration": time.Since(start),
	}
	if req.URL.RawQuery != "" {
		fields["query"] = req.URL.RawQuery
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode
		fields["status"] = status
		if remaining := resp.Header.Get("RateLimit-Remaining"); remaining != "" {
			fields["ratelimit_remaining"] = remaining
		}
	}

	entry := d.logger.WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	switch determineLogLevel(status, err) {
	case logrus.WarnLevel:
		entry.Warn("remote request completed")
	case logrus.ErrorLevel:
		entry.Error("remote request completed")
	default:
		entry.Debug("remote request completed")
	}
	return resp, err
}

func determineLogLevel(status int, err error) logrus.Level {
	if err != nil {
		return logrus.ErrorLevel
	}
	switch {
	case status >= 500:
		return logrus.ErrorLevel
	case status >= 400:
		return logrus.WarnLevel
	default:
		return logrus.DebugLevel
	}
}
