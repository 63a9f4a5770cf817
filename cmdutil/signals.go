package cmdutil

import (
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
)

// NewSignalServer returns a Server whose Run returns nil once one of sigs
// is received or the Server is stopped.
func NewSignalServer(logger logrus.FieldLogger, sigs ...os.Signal) Server {
	ch := make(chan os.Signal, 1)

	return ServerFuncs{
		RunFunc: func() error {
			signal.Notify(ch, sigs...)
			if sig := <-ch; sig != nil {
				logger.WithField("signal", sig.String()).Info("received signal")
			}
			return nil
		},
		StopFunc: func(error) {
			signal.Stop(ch)
			select {
			case ch <- nil:
			default:
			}
		},
	}
}
