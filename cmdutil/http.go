package cmdutil

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ShutdownTimeout bounds how long an HTTP server waits for in-flight
// requests, and with them their measurements, when stopped.
var ShutdownTimeout = 5 * time.Second

// listenHook lets tests learn the resolved address of servers bound to :0.
var listenHook chan net.Listener

// NewHTTPServer adapts srv to a Server. Stop shuts srv down gracefully so
// that exchanges in flight still complete.
func NewHTTPServer(l logrus.FieldLogger, srv *http.Server) Server {
	return ServerFuncs{
		RunFunc: func() error {
			l.WithFields(logrus.Fields{
				"at":   "binding",
				"addr": srv.Addr,
			}).Info()

			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return errors.Wrap(err, "listening to tcp addr")
			}
			defer ln.Close()

			if listenHook != nil {
				listenHook <- ln
			}

			if err := srv.Serve(ln); err != http.ErrServerClosed {
				return err
			}
			return nil
		},
		StopFunc: func(error) { gracefulShutdown(l, srv) },
	}
}

func gracefulShutdown(l logrus.FieldLogger, s *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	l.WithField("at", "graceful-shutdown").Info()
	if err := s.Shutdown(ctx); err != nil {
		l.WithField("at", "graceful-shutdown").WithError(err).Warn()
		s.Close()
	}
}
