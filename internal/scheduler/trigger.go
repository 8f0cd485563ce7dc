package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Trigger describes when a task fires.
type Trigger struct {
	every time.Duration
	spec  string
}

// Every fires at a fixed interval. A non-positive interval disables the task.
func Every(d time.Duration) Trigger {
	return Trigger{every: d}
}

// DailyAt fires once a day at the given wall-clock time.
func DailyAt(hour, minute int) Trigger {
	return Trigger{spec: fmt.Sprintf("0 %d %d * * *", minute, hour)}
}

// Cron fires on a cron expression, with an optional leading seconds field.
func Cron(spec string) Trigger {
	return Trigger{spec: spec}
}

// Enabled reports whether the trigger would ever fire.
func (t Trigger) Enabled() bool {
	return t.spec != "" || t.every > 0
}

func (t Trigger) String() string {
	switch {
	case t.spec != "":
		return t.spec
	case t.every > 0:
		return "@every " + t.every.String()
	default:
		return "disabled"
	}
}

func (t Trigger) schedule() (cron.Schedule, error) {
	if t.spec != "" {
		s, err := parser.Parse(t.spec)
		if err != nil {
			return nil, fmt.Errorf("parsing cron spec %q: %w", t.spec, err)
		}
		return s, nil
	}
	if t.every < time.Second {
		return nil, fmt.Errorf("interval %s is shorter than one second", t.every)
	}
	return cron.Every(t.every), nil
}
