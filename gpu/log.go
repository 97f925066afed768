package gpu

import (
	"io"
	"log"
	"os"
)

// Logger is the triple severity-scoped logger instance and device
// creation write their failures through, generalized from the
// teacher's BaseCore.info_log/warn_log/error_log fields (core.go).
type Logger struct {
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger
}

// NewFileLogger opens (or creates) three append-mode log files under dir,
// one per severity, matching the teacher's os.OpenFile(O_APPEND|O_CREATE)
// pattern in NewBaseCore.
func NewFileLogger(dir string) (*Logger, error) {
	open := func(name string) (*os.File, error) {
		return os.OpenFile(dir+"/"+name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
	}

	infoFile, err := open("gpu_info.log")
	if err != nil {
		return nil, err
	}
	warnFile, err := open("gpu_warn.log")
	if err != nil {
		return nil, err
	}
	errorFile, err := open("gpu_error.log")
	if err != nil {
		return nil, err
	}

	return &Logger{
		Info:  log.New(infoFile, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile),
		Warn:  log.New(warnFile, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile),
		Error: log.New(errorFile, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile),
	}, nil
}

// NewDiscardLogger returns a Logger that drops every line, for headless
// callers (tests, offscreen rendering) that have no log directory.
func NewDiscardLogger() *Logger {
	discard := log.New(io.Discard, "", 0)
	return &Logger{Info: discard, Warn: discard, Error: discard}
}
