package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	rollbarerrs "github.com/rollbar/rollbar-go/errors"

	"github.com/kayembe/elimu/core"
	"github.com/kayembe/elimu/core/user"
)

// RollbarLogger reports leveled messages to Rollbar and mirrors every message
// on a standard logger so local output survives when reporting is disabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(rollbarerrs.StackTracer)
	return &RollbarLogger{std: std}
}

// Enable toggles Rollbar reporting; the standard logger always prints.
func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// logAt prints msg and args locally, attaches the first user.User found in
// args as the reported person, and forwards the rest to Rollbar at level.
func (l *RollbarLogger) logAt(level, msg string, args []interface{}) {
	l.std.Println(msg)

	var person *user.User
	payload := make([]interface{}, 0, len(args)+1)
	payload = append(payload, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
		if usr, ok := arg.(user.User); ok && person == nil {
			person = &usr
			continue
		}
		payload = append(payload, arg)
	}
	if person != nil {
		rollbar.SetPerson(person.ID, person.Username, person.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, payload...)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.logAt(rollbar.DEBUG, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.logAt(rollbar.INFO, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.logAt(rollbar.WARN, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.logAt(rollbar.ERR, msg, args) }

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.logAt(rollbar.CRIT, msg, args)
	l.std.Fatal(msg)
}
