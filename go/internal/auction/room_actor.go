package auction

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// run is the room actor. It executes queued work strictly in arrival order
// and exits once a handler has closed the room.
func (r *Room) run(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("room_id", r.id).
				Interface("panic", rec).
				Msg("room actor panicked")
			if r.state != StateClosed {
				r.close()
			}
			close(r.done)
			if r.cfg.DevMode {
				panic(rec)
			}
		}
	}()

	for {
		select {
		case fn := <-r.inbox:
			fn()
			if r.state == StateClosed {
				close(r.done)
				return
			}
		case <-ctx.Done():
			r.close()
			close(r.done)
			return
		}
	}
}

// do runs fn on the actor and waits for it to finish. It returns
// ErrRoomNotFound if the room closed before fn ran.
func (r *Room) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	job := func() { reply <- fn() }

	select {
	case r.inbox <- job:
	case <-r.done:
		return ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-r.done:
		// fn may have been the job that closed the room
		select {
		case err := <-reply:
			return err
		default:
			return ErrRoomNotFound
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues fn without waiting for it. It gives up if the room closes first.
func (r *Room) post(fn func()) bool {
	select {
	case r.inbox <- fn:
		return true
	case <-r.done:
		return false
	}
}

// deliverTick is the timerPair's route into the actor
func (r *Room) deliverTick(gen uint64, stop <-chan struct{}) bool {
	select {
	case r.inbox <- func() { r.handleTick(gen) }:
		return true
	case <-stop:
		return false
	case <-r.done:
		return false
	}
}

// closed reports whether the actor has exited
func (r *Room) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *Room) String() string {
	return fmt.Sprintf("room(%s)", r.id)
}
