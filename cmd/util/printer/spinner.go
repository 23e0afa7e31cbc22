package printer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/theckman/yacspin"
)

const spinnerFrequency = 100 * time.Millisecond

var spinnerEmoji = [...]string{"🐟", "🐠", "🐡"}

// Spinner shows one line per step of a long running command. A disabled
// spinner only logs the steps, which keeps non-terminal output clean.
type Spinner struct {
	ctx     context.Context
	spin    *yacspin.Spinner
	enabled bool
	started time.Time
}

func NewSpinner(ctx context.Context, w io.Writer, enabled bool) (*Spinner, error) {
	s := &Spinner{ctx: ctx, enabled: enabled}
	if !enabled {
		return s, nil
	}

	spacer := 4
	var charSet []string
	for _, emoji := range spinnerEmoji {
		for i := 0; i < spacer; i++ {
			charSet = append(charSet, fmt.Sprintf("%*s%s%*s", spacer-i, "", emoji, i, ""))
		}
	}

	spin, err := yacspin.New(yacspin.Config{
		Frequency:         spinnerFrequency,
		Writer:            w,
		CharSet:           charSet,
		SuffixAutoColon:   true,
		StopCharacter:     "✅",
		StopFailCharacter: "❌",
	})
	if err != nil {
		return nil, fmt.Errorf("creating spinner: %w", err)
	}
	s.spin = spin
	return s, nil
}

// NextStep completes the current step, if any, and starts a new one.
func (s *Spinner) NextStep(step string) {
	log.Ctx(s.ctx).Debug().Str("step", step).Msg("starting")
	if !s.enabled {
		return
	}
	s.stop(true)

	s.started = time.Now()
	s.spin.Suffix(" " + step)
	s.spin.Message("")
	if err := s.spin.Start(); err != nil {
		log.Ctx(s.ctx).Debug().Err(err).Msg("failed to start spinner")
	}
}

// Done completes the current step, marking it failed unless success is set.
func (s *Spinner) Done(success bool) {
	if !s.enabled {
		return
	}
	s.stop(success)
}

func (s *Spinner) stop(success bool) {
	if s.spin.Status() != yacspin.SpinnerRunning {
		return
	}
	elapsed := time.Since(s.started).Round(time.Millisecond)

	var err error
	if success {
		s.spin.StopMessage(fmt.Sprintf("done in %s", elapsed))
		err = s.spin.Stop()
	} else {
		s.spin.StopFailMessage(fmt.Sprintf("failed after %s", elapsed))
		err = s.spin.StopFail()
	}
	if err != nil {
		log.Ctx(s.ctx).Debug().Err(err).Msg("failed to stop spinner")
	}
}
