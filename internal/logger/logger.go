package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

const (
	FieldComponent = "component"
	FieldCategory  = "category"
)

var (
	Log        *logrus.Logger
	NfLog      *logrus.Entry
	MainLog    *logrus.Entry
	CfgLog     *logrus.Entry
	AggLog     *logrus.Entry
	ReportLog  *logrus.Entry
	FlowmonLog *logrus.Entry
	CaptureLog *logrus.Entry
	RunLog     *logrus.Entry
	ProbeLog   *logrus.Entry
	APILog     *logrus.Entry
	AlertLog   *logrus.Entry
)

func init() {
	Log = logrus.New()
	Log.SetOutput(os.Stderr)
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	NfLog = Log.WithField(FieldComponent, "LteFlowReport")
	MainLog = NfLog.WithField(FieldCategory, "Main")
	CfgLog = NfLog.WithField(FieldCategory, "CFG")
	AggLog = NfLog.WithField(FieldCategory, "Agg")
	ReportLog = NfLog.WithField(FieldCategory, "Report")
	FlowmonLog = NfLog.WithField(FieldCategory, "Flowmon")
	CaptureLog = NfLog.WithField(FieldCategory, "Capture")
	RunLog = NfLog.WithField(FieldCategory, "Run")
	ProbeLog = NfLog.WithField(FieldCategory, "Probe")
	APILog = NfLog.WithField(FieldCategory, "API")
	AlertLog = NfLog.WithField(FieldCategory, "Alert")
}

// SetLevel parses a level name ("debug", "info", ...) and applies it.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Log.SetLevel(lvl)
	return nil
}
