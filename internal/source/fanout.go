package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RunCalls issues every call concurrently and waits for all of them to
// settle. The returned slice has the same length and order as calls;
// completion order across calls is unspecified. A timeout or panic inside
// one call becomes that call's failure and never affects its siblings.
func RunCalls(ctx context.Context, calls []Call) []Outcome {
	outcomes := make([]Outcome, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call Call) {
			defer wg.Done()
			outcomes[i] = invoke(ctx, call)
		}(i, call)
	}
	wg.Wait()

	return outcomes
}

func invoke(ctx context.Context, call Call) (out Outcome) {
	out.Call = call

	// A panicking capability is a programming error in the transport
	// layer; it must settle as a failure like any other.
	defer func() {
		if r := recover(); r != nil {
			out.OK = false
			out.Err = fmt.Errorf("panic during %s: %v", call.Method, r)
			log.Error().
				Str("source", call.Source.Name()).
				Str("method", call.Method).
				Interface("panic", r).
				Msg("source call panicked")
		}
	}()

	start := time.Now()
	value, err := call.Source.Invoke(ctx, call.Method, call.Params)
	elapsed := time.Since(start)

	if err != nil {
		log.Debug().
			Err(err).
			Str("source", call.Source.Name()).
			Str("method", call.Method).
			Dur("elapsed", elapsed).
			Bool("required", call.Required).
			Msg("source call failed")
		out.OK = false
		out.Err = err
		return out
	}

	out.OK = true
	out.Value = value
	return out
}
