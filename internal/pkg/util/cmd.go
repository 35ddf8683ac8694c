package util

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

// GracefulStop blocks until SIGTERM or SIGINT, runs stopFunc and then
// waits for the wait group with an upper bound of waitTimeout.
func GracefulStop(waitGroup *sync.WaitGroup, waitTimeout time.Duration, stopFunc func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan

	log.Infof("Received %s, shutting down", sig)
	stopFunc()

	if waitGroup == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		waitGroup.Wait()
	}()

	select {
	case <-done:
		log.Info("Node stopped")
	case <-time.After(waitTimeout):
		log.Warnf("Node stopped after %s timeout", waitTimeout)
	}
}
