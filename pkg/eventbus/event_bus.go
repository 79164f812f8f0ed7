package eventbus

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/campus-sdk/pkg/serrors"
)

type EventBus interface {
	Publish(args ...any)
	PublishE(args ...any) error
	Subscribe(handler any)
	Unsubscribe(handler any)
	Clear()
	SubscribersCount() int
}

var (
	ErrNoSubscribers        = serrors.NewError("EVENTBUS_NO_SUBSCRIBERS", "no matching subscribers", "")
	ErrInvalidHandlerReturn = serrors.NewError("EVENTBUS_INVALID_HANDLER_RETURN", "invalid handler return signature", "")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type bus struct {
	log *logrus.Logger

	mu       sync.RWMutex
	handlers []any
}

func NewEventPublisher(log *logrus.Logger) EventBus {
	return &bus{log: log}
}

// MatchSignature reports whether handler can be called with args.
func MatchSignature(handler any, args []any) bool {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func {
		return false
	}
	if t.NumIn() != len(args) {
		return false
	}

	for i, arg := range args {
		paramType := t.In(i)
		if arg == nil {
			k := paramType.Kind()
			if k != reflect.Interface && k != reflect.Ptr {
				return false
			}
			continue
		}
		argType := reflect.TypeOf(arg)
		if paramType.Kind() == reflect.Interface {
			if !argType.Implements(paramType) {
				return false
			}
			continue
		}
		if !argType.AssignableTo(paramType) {
			return false
		}
	}
	return true
}

func (b *bus) snapshot() []any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]any, len(b.handlers))
	copy(out, b.handlers)
	return out
}

func values(args []any) []reflect.Value {
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		in[i] = reflect.ValueOf(arg)
	}
	return in
}

// Publish delivers args to every matching handler. Handler panics are logged
// and do not stop delivery to the remaining handlers.
func (b *bus) Publish(args ...any) {
	in := values(args)
	handled := false
	for _, h := range b.snapshot() {
		if !MatchSignature(h, args) {
			continue
		}
		v := reflect.ValueOf(h)
		func() {
			defer func() {
				if r := recover(); r != nil && b.log != nil {
					b.log.Errorf("eventbus: handler %s panicked with args %v: %v", v.Type().String(), args, r)
				}
			}()
			v.Call(in)
			handled = true
		}()
	}

	if !handled && b.log != nil {
		b.log.Warnf("eventbus.Publish: no matching subscribers for event with args: %v", args)
	}
}

// PublishE is Publish for handlers returning error. Returned errors and
// panics are joined into the result.
func (b *bus) PublishE(args ...any) error {
	in := values(args)
	handled := false
	var errs []error

	for _, h := range b.snapshot() {
		if !MatchSignature(h, args) {
			continue
		}
		handled = true
		v := reflect.ValueOf(h)

		func() {
			defer func() {
				if r := recover(); r != nil {
					errs = append(errs, fmt.Errorf("eventbus: handler %s panicked: %v", v.Type().String(), r))
				}
			}()

			out := v.Call(in)
			switch {
			case len(out) == 0:
				return
			case len(out) != 1:
				errs = append(errs, fmt.Errorf("%w: handler %s returned %d values", ErrInvalidHandlerReturn, v.Type().String(), len(out)))
			case out[0].Type() != errorType:
				errs = append(errs, fmt.Errorf("%w: handler %s return type is %s", ErrInvalidHandlerReturn, v.Type().String(), out[0].Type().String()))
			case !out[0].IsNil():
				errs = append(errs, out[0].Interface().(error))
			}
		}()
	}

	if !handled {
		return ErrNoSubscribers
	}
	return errors.Join(errs...)
}

func (b *bus) Subscribe(handler any) {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func {
		panic("handler must be a function")
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
}

// Unsubscribe removes the first handler whose func pointer equals handler.
func (b *bus) Unsubscribe(handler any) {
	ptr := reflect.ValueOf(handler).Pointer()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.handlers {
		if reflect.ValueOf(h).Pointer() == ptr {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return
		}
	}
}

func (b *bus) Clear() {
	b.mu.Lock()
	b.handlers = nil
	b.mu.Unlock()
}

func (b *bus) SubscribersCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
