package outbox

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/campus-sdk/pkg/logging"
)

type RelayOptions struct {
	PollInterval    time.Duration
	BatchSize       int
	LockTTL         time.Duration
	MaxAttempts     int
	SingleActive    bool
	MaxBackoff      time.Duration
	JitterMax       time.Duration
	LastErrorMaxLen int
	DispatchTimeout time.Duration

	Logger *logrus.Entry
	Rand   *rand.Rand
}

func (o *RelayOptions) setDefaults() {
	if o.PollInterval == 0 {
		o.PollInterval = time.Second
	}
	if o.BatchSize == 0 {
		o.BatchSize = 50
	}
	if o.LockTTL == 0 {
		o.LockTTL = time.Minute
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 10
	}
	if o.MaxBackoff == 0 {
		o.MaxBackoff = time.Minute
	}
	if o.JitterMax == 0 {
		o.JitterMax = 200 * time.Millisecond
	}
	if o.LastErrorMaxLen == 0 {
		o.LastErrorMaxLen = 2048
	}
	if o.DispatchTimeout == 0 {
		o.DispatchTimeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}
}
