// Package xerr attaches a message trace and the first stack trace
// to an error while keeping its cause reachable.
package xerr

import (
	"fmt"
	"runtime"
	"strings"
)

// Trace wraps cause (or adds to it if cause itself is traced)
// with the caller's location and an optional message.
func Trace(cause error, args ...any) Xerror {
	return doTrace(cause, fmt.Sprint(args...))
}

func Tracef(cause error, format string, args ...any) Xerror {
	return doTrace(cause, fmt.Sprintf(format, args...))
}

// Errorf makes a new traced error from the formatted message.
func Errorf(format string, args ...any) Xerror {
	return doTrace(fmt.Errorf(format, args...), "")
}

func doTrace(cause error, msg string) Xerror {
	err, ok := cause.(*_Xerror)
	if !ok {
		err = &_Xerror{cause: cause}
	}
	err.trace(2, msg)
	return err
}

type Xerror interface {
	error
	Cause() error
	Unwrap() error
}

type _Xerror struct {
	cause      error
	stacktrace []uintptr    // first stack trace
	msgtrace   []_TraceItem // all messages traced
}

// Error returns the cause's message prefixed by the traced messages,
// latest first.
func (err *_Xerror) Error() string {
	var sb strings.Builder
	for i := len(err.msgtrace) - 1; i >= 0; i-- {
		if m := err.msgtrace[i].msg; m != "" {
			sb.WriteString(m)
			sb.WriteString(": ")
		}
	}
	if err.cause != nil {
		sb.WriteString(err.cause.Error())
	}
	return sb.String()
}

func (err *_Xerror) Cause() error {
	return err.cause
}

func (err *_Xerror) Unwrap() error {
	return err.cause
}

func (err *_Xerror) trace(skip int, msg string) {
	if err.stacktrace == nil {
		pcs := make([]uintptr, 32)
		n := runtime.Callers(skip+2, pcs)
		err.stacktrace = pcs[:n]
	}

	pc, _, _, _ := runtime.Caller(skip + 1)
	err.msgtrace = append(err.msgtrace, _TraceItem{pc: pc, msg: msg})
}

// Format prints the full trace with %+v, the plain message otherwise.
func (err *_Xerror) Format(s fmt.State, verb rune) {
	if verb != 'v' || !s.Flag('+') {
		fmt.Fprint(s, err.Error())
		return
	}

	fmt.Fprintf(s, "--= Xerror =--\nCause: %v\nMsg-Traces:\n", err.cause)
	for i, mt := range err.msgtrace {
		fmt.Fprintf(s, " %3d  %s\n", i, mt)
	}
	if err.stacktrace != nil {
		fmt.Fprintf(s, "Stack-Trace:\n")
		frames := runtime.CallersFrames(err.stacktrace)
		for i := 0; ; i++ {
			f, more := frames.Next()
			fmt.Fprintf(s, " %3d  %s:%d:%s\n", i, f.File, f.Line, shortName(f.Function))
			if !more {
				break
			}
		}
	}
	fmt.Fprint(s, "--= /Xerror =--\n")
}

type _TraceItem struct {
	pc  uintptr
	msg string
}

func (ti _TraceItem) String() string {
	fun := runtime.FuncForPC(ti.pc)
	if fun == nil {
		return ti.msg
	}
	file, line := fun.FileLine(ti.pc)
	if len(ti.msg) == 0 {
		return fmt.Sprintf("%s:%d:%s", file, line, shortName(fun.Name()))
	}
	return fmt.Sprintf("%s:%d:%s  %s", file, line, shortName(fun.Name()), ti.msg)
}

func shortName(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i >= 0 {
		return name[i+1:]
	}
	return name
}
