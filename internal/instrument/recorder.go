// Package instrument implements the actuator and sensor wrappers: every
// instrumented device call is bound, printed as a trace line and appended
// to the event log.
package instrument

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/vexharness/internal/binder"
	"github.com/roach88/vexharness/internal/eventlog"
	"github.com/roach88/vexharness/internal/ir"
	"github.com/roach88/vexharness/internal/mockstore"
)

// PromptSuffix follows the sensing line when asking for interactive input.
const PromptSuffix = "? (in JSON)   "

// Recorder wraps device calls.
type Recorder struct {
	// Log receives one event per act or sense call.
	Log *eventlog.Log

	// Out receives trace lines.
	Out io.Writer

	// In supplies interactive sensor values, one JSON value per line.
	In *bufio.Reader

	// Interactive routes unset sensor reads to In instead of the stub.
	Interactive bool

	// Echo writes each consumed input line after its prompt. Set it when In
	// is a pre-populated stream rather than a terminal.
	Echo bool

	// MaxEvents limits the log length. Zero means unlimited.
	MaxEvents int

	Logger *slog.Logger
}

// Default is the process-wide recorder over the default event log and the
// standard streams.
var Default = &Recorder{
	Log: eventlog.Default,
	Out: os.Stdout,
	In:  bufio.NewReader(os.Stdin),
}

func (r *Recorder) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

func (r *Recorder) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

// Act records an actuation: bind, print the ACT line, append the event
// and return it.
func (r *Recorder) Act(sig *ir.MethodSig, positional []ir.IRValue) (ir.Event, error) {
	args, err := binder.Bind(sig, positional)
	if err != nil {
		return ir.Event{}, err
	}
	if err := r.checkQuota(sig); err != nil {
		return ir.Event{}, err
	}

	fmt.Fprintf(r.out(), "ACT: %s\n", callText(sig, args))

	event := ir.NewActuation(sig.Qualified(), args)
	idx := r.Log.Append(event)
	r.logger().Debug("act recorded",
		"index", idx,
		"method", event.Method,
		"args", args.Format(),
	)
	return event, nil
}

// Sense records a sensing. The value comes from the first source that has
// one: the scripted entry in store, interactive input, or the declared stub.
// store may be nil when the owner has no scripted values.
func (r *Recorder) Sense(sig *ir.MethodSig, store *mockstore.Store, positional []ir.IRValue) (ir.IRValue, error) {
	args, err := binder.Bind(sig, positional)
	if err != nil {
		return nil, err
	}
	if err := r.checkQuota(sig); err != nil {
		return nil, err
	}

	head := "SENSE: " + callText(sig, args)
	if sig.Returns != "" {
		head += ": " + sig.Returns
	}

	var (
		value  ir.IRValue
		source string
	)
	if store != nil {
		if v, ok := store.Table(sig.Name).Take(args); ok {
			value, source = v, "scripted"
		}
	}

	switch {
	case source != "":
		fmt.Fprintf(r.out(), "%s = %s\n", head, ir.Sanitize(value))
	case r.Interactive:
		value, err = r.prompt(sig, head)
		if err != nil {
			return nil, err
		}
		source = "interactive"
	default:
		value, source = StubValue(sig), "stub"
		fmt.Fprintf(r.out(), "%s = %s\n", head, ir.Sanitize(value))
	}

	event := ir.NewSensing(sig.Qualified(), args, value)
	event.Annotation = sig.Returns
	idx := r.Log.Append(event)
	r.logger().Debug("sense recorded",
		"index", idx,
		"method", event.Method,
		"args", args.Format(),
		"return", ir.Sanitize(event.Return),
		"source", source,
	)
	return event.Return, nil
}

// Install stores a scripted value for later reads of the same argument
// tuple. A list payload is consumed head-first; anything else is sticky.
// No event is recorded.
func (r *Recorder) Install(sig *ir.MethodSig, store *mockstore.Store, positional []ir.IRValue, payload ir.IRValue) error {
	args, err := binder.Bind(sig, positional)
	if err != nil {
		return err
	}
	if payload == nil {
		payload = ir.IRNull{}
	}

	store.Table(sig.Name).Set(args, payload)

	fmt.Fprintf(r.out(), "SET: %s%s[%s] = %s\n",
		selfPrefix(args), mockstore.AttrName(sig.Name), args.WithoutSelf().Format(), ir.Sanitize(payload))
	r.logger().Debug("sensor value installed",
		"method", sig.Qualified(),
		"args", args.Format(),
		"payload", ir.Sanitize(payload),
	)
	return nil
}

// prompt asks for one JSON value on In. The prompt line stands in for the
// sensing line.
func (r *Recorder) prompt(sig *ir.MethodSig, head string) (ir.IRValue, error) {
	fmt.Fprintf(r.out(), "%s = %s", head, PromptSuffix)

	if r.In == nil {
		fmt.Fprintln(r.out())
		return nil, &InputError{Code: ErrCodeInputExhausted, Method: sig.Qualified(), Err: io.EOF}
	}

	line, err := r.In.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		fmt.Fprintln(r.out())
		return nil, &InputError{Code: ErrCodeInputExhausted, Method: sig.Qualified(), Err: err}
	}
	line = strings.TrimSpace(line)
	if r.Echo {
		fmt.Fprintln(r.out(), line)
	}

	value, err := ir.ParseJSON([]byte(line))
	if err != nil {
		return nil, &InputError{Code: ErrCodeInputParse, Method: sig.Qualified(), Input: line, Err: err}
	}
	return value, nil
}

// StubValue is what the uninstrumented hardware stub returns: the declared
// stub, or None.
func StubValue(sig *ir.MethodSig) ir.IRValue {
	if sig.Stub == nil {
		return ir.IRNull{}
	}
	return sig.Stub
}

// callText renders "<self>.<method>(k=v, ...)", dropping the self prefix
// when the method has no receiver.
func callText(sig *ir.MethodSig, args ir.Args) string {
	return selfPrefix(args) + sig.Name + "(" + args.WithoutSelf().Format() + ")"
}

func selfPrefix(args ir.Args) string {
	if self, ok := args.Self(); ok {
		return ir.Sanitize(self) + "."
	}
	return ""
}
