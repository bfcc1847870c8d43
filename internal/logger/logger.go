// Package logger sets up the console logger used by every command.
package logger

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Formatter renders entries as "[15:04:05] LEVEL: message {k=v, ...}".
type Formatter struct {
	TimestampFormat string
	DisableColors   bool
}

// Format implements logrus.Formatter.
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var levelColor *color.Color
	switch entry.Level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		levelColor = color.New(color.FgRed, color.Bold)
	case logrus.WarnLevel:
		levelColor = color.New(color.FgYellow, color.Bold)
	case logrus.InfoLevel:
		levelColor = color.New(color.FgCyan)
	default:
		levelColor = color.New(color.FgWhite, color.Faint)
	}
	levelText := strings.ToUpper(entry.Level.String())
	if f.DisableColors {
		levelColor.DisableColor()
	} else {
		levelColor.EnableColor()
	}

	var b strings.Builder
	if f.TimestampFormat != "" {
		fmt.Fprintf(&b, "[%s] ", entry.Time.Format(f.TimestampFormat))
	}
	fmt.Fprintf(&b, "%s: %s", levelColor.Sprint(levelText), entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf("%s=%v", k, entry.Data[k])
		}
		fields := " {" + strings.Join(pairs, ", ") + "}"
		if f.DisableColors {
			b.WriteString(fields)
		} else {
			b.WriteString(color.New(color.FgWhite, color.Faint).Sprint(fields))
		}
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// New creates a logger writing to out. Unknown levels fall back to info.
// Colors are used only when out is a terminal and NO_COLOR is unset.
func New(out io.Writer, level string) *logrus.Logger {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetOutput(out)
	log.SetFormatter(&Formatter{
		TimestampFormat: "15:04:05",
		DisableColors:   color.NoColor || !isTerminal(out),
	})
	return log
}

// Discard returns a logger that drops everything, for tests and quiet runs.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Banner logs msg framed by separator lines.
func Banner(log logrus.FieldLogger, msg string) {
	line := strings.Repeat("=", 60)
	log.Info(line)
	log.Info(msg)
	log.Info(line)
}
