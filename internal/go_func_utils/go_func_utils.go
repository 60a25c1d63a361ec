package go_func_utils

import (
	"log"

	"github.com/sourcegraph/conc/panics"
)

// SafeGo runs fn on a new goroutine. A panic is written to logger with its
// stack before being re-raised, since the curses UI swallows stderr.
func SafeGo(logger *log.Logger, fn func()) {
	go func() {
		var pc panics.Catcher
		defer func() {
			if r := pc.Recovered(); r != nil {
				logger.Printf("PANIC: %v\n%s", r.Value, r.Stack)
				pc.Repanic()
			}
		}()
		pc.Try(fn)
	}()
}

// SafeCall runs fn on the calling goroutine. Panics and returned errors are
// logged under name and reported back as an error; they never propagate.
func SafeCall(logger *log.Logger, name string, fn func() error) error {
	var (
		pc  panics.Catcher
		err error
	)
	pc.Try(func() { err = fn() })
	if r := pc.Recovered(); r != nil {
		logger.Printf("%s: recovered panic: %v\n%s", name, r.Value, r.Stack)
		return r.AsError()
	}
	if err != nil {
		logger.Printf("%s: %v", name, err)
	}
	return err
}
