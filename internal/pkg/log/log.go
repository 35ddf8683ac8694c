package log

import (
	log "github.com/sirupsen/logrus"
)

type typedLog struct {
	Svm  *log.Entry
	Rpc  *log.Entry
	Node *log.Entry
}

var (
	Logger *typedLog
)

// Init logger on start
func init() {
	Logger = &typedLog{
		Svm:  log.WithFields(log.Fields{"module": "svm"}),
		Rpc:  log.WithFields(log.Fields{"module": "rpc"}),
		Node: log.WithFields(log.Fields{"module": "node"}),
	}
}

func Setup(lvl string) error {
	logLevel, err := log.ParseLevel(lvl)
	if err != nil {
		return err
	}

	// log format
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	log.SetLevel(logLevel)
	return nil
}
