// Package log is the server's structured, leveled logger: a thin
// op/go-logging wrapper covering server lifecycle, connection accept/close,
// command errors and WAL/snapshot activity.
package log

import (
	"os"

	"github.com/op/go-logging"
)

const moduleName = "wedis"

const (
	CRITICAL = logging.CRITICAL
	ERROR    = logging.ERROR
	WARNING  = logging.WARNING
	NOTICE   = logging.NOTICE
	INFO     = logging.INFO
	DEBUG    = logging.DEBUG
)

var logger = logging.MustGetLogger(moduleName)
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} ▶ %{level:.4s} %{id:03x}%{color:reset} %{message}`,
)

func init() {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	backendFormatter := logging.NewBackendFormatter(backend, format)
	logging.SetBackend(backendFormatter)
}

// SetLevel sets the current global log level for the server's logger.
func SetLevel(level logging.Level) {
	logging.SetLevel(level, moduleName)
}

func Criticalf(format string, args ...interface{}) { logger.Criticalf(format, args...) }
func Critical(args ...interface{})                  { logger.Critical(args...) }

func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
func Error(args ...interface{})                  { logger.Error(args...) }

func Warningf(format string, args ...interface{}) { logger.Warningf(format, args...) }
func Warning(args ...interface{})                  { logger.Warning(args...) }

func Noticef(format string, args ...interface{}) { logger.Noticef(format, args...) }
func Notice(args ...interface{})                  { logger.Notice(args...) }

func Infof(format string, args ...interface{}) { logger.Infof(format, args...) }
func Info(args ...interface{})                  { logger.Info(args...) }

func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Debug(args ...interface{})                  { logger.Debug(args...) }
