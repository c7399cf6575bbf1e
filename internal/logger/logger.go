package logger

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file names, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Fields is an alias so callers do not import logrus directly.
type Fields = logrus.Fields

// Logger provides leveled logging (info/warning/error) to per-level files and the console.
type Logger struct {
	log    *logrus.Logger
	logDir string
	files  map[string]*lumberjack.Logger
	mu     sync.Mutex
}

// New creates a Logger writing to console and to rotating files under logDir.
func New(logDir, level string) (*Logger, error) {
	return NewWithOutput(logDir, level, os.Stdout)
}

// NewWithOutput is New with an explicit console writer.
func NewWithOutput(logDir, level string, console io.Writer) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	l := &Logger{
		log:    logrus.New(),
		logDir: logDir,
		files:  make(map[string]*lumberjack.Logger),
	}
	for _, name := range []string{InfoFile, WarningFile, ErrorFile} {
		l.files[name] = &lumberjack.Logger{
			Filename:   filepath.Join(logDir, name),
			LocalTime:  true,
			Compress:   true,
			MaxSize:    50,
			MaxAge:     14,
			MaxBackups: 3,
		}
	}

	l.log.SetLevel(lvl)
	l.log.SetOutput(console)
	l.log.SetFormatter(&formatter.Formatter{
		NoColors:        true,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		FieldsOrder:     []string{"caller"},
	})
	l.log.AddHook(&levelFileHook{
		writers: map[logrus.Level]io.Writer{
			logrus.DebugLevel: l.files[InfoFile],
			logrus.InfoLevel:  l.files[InfoFile],
			logrus.WarnLevel:  l.files[WarningFile],
			logrus.ErrorLevel: l.files[ErrorFile],
			logrus.FatalLevel: l.files[ErrorFile],
			logrus.PanicLevel: l.files[ErrorFile],
		},
		formatter: &logrus.TextFormatter{DisableColors: true, FullTimestamp: true},
	})

	return l, nil
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.caller().Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.caller().Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.caller().Errorf(format, v...)
}

// Debug writes a formatted debug-level log entry.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.caller().Debugf(format, v...)
}

// caller tags the entry with the file and line that called one of the
// leveled methods above.
func (l *Logger) caller() *logrus.Entry {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return logrus.NewEntry(l.log)
	}
	return l.log.WithField("caller", fmt.Sprintf("%s:%d", path.Base(file), line))
}

// WithFields returns a structured entry carrying the given fields.
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.log.WithFields(fields)
}

// Directory returns the directory holding the level files.
func (l *Logger) Directory() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.files[fileName]
	if !ok {
		return fmt.Errorf("unknown log file %q", fileName)
	}
	// lumberjack reopens in append mode on the next write.
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", fileName, err)
	}

	filePath := filepath.Join(l.logDir, fileName)
	if err := os.Truncate(filePath, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to truncate %s: %w", fileName, err)
	}

	l.Info("Log file %s has been cleared", fileName)
	return nil
}

// Close flushes and closes the level files.
func (l *Logger) Close() error {
	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// levelFileHook mirrors each entry into the file for its level.
type levelFileHook struct {
	writers   map[logrus.Level]io.Writer
	formatter logrus.Formatter
}

func (h *levelFileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *levelFileHook) Fire(entry *logrus.Entry) error {
	w, ok := h.writers[entry.Level]
	if !ok {
		return nil
	}
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = w.Write(line)
	return err
}
