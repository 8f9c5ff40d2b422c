package manager

import (
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/dom/pkmn-draft-website/internal/domain"
	"github.com/dom/pkmn-draft-website/internal/draft"
)

// DeadlineScheduler turns future deadlines into EnforceDeadline requests on
// the manager's queue. Scheduling is fire-and-forget: nothing cancels a
// scheduled deadline, and an already-past instant fires immediately.
// Late or duplicate firings are safe because deadline enforcement is
// idempotent.
type DeadlineScheduler struct {
	clock      clockwork.Clock
	tasks      chan<- Task
	stop       <-chan struct{}
	instanceID string
}

func newDeadlineScheduler(clock clockwork.Clock, tasks chan<- Task, stop <-chan struct{}) *DeadlineScheduler {
	return &DeadlineScheduler{
		clock:      clock,
		tasks:      tasks,
		stop:       stop,
		instanceID: uuid.New().String()[:8],
	}
}

// Schedule fires an EnforceDeadline for lobbyID at d.At. The reply channel
// is throwaway; nobody waits on it.
func (s *DeadlineScheduler) Schedule(lobbyID domain.LobbyID, d draft.Deadline) {
	delay := d.At.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	go func() {
		select {
		case <-s.clock.After(delay):
		case <-s.stop:
			return
		}
		task := Task{
			Request: EnforceDeadline{LobbyID: lobbyID, Round: d.Round, Pick: d.Pick},
			Reply:   make(chan Response, 1),
		}
		select {
		case s.tasks <- task:
		case <-s.stop:
			log.Error().
				Str("instance", s.instanceID).
				Uint64("lobby_id", uint64(lobbyID)).
				Int("round", d.Round).
				Int("pick", d.Pick).
				Msg("could not enqueue deadline: manager stopped")
		}
	}()
}
