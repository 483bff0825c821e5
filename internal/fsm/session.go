package fsm

import (
	"sync"

	"github.com/looplab/fsm"
)

// SessionStateMachine validates which commands a terminal session accepts
// in a given phase. It holds no session state of its own: callers pass the
// phase derived from their order on every check.
type SessionStateMachine struct {
	fsm *fsm.FSM
	mu  sync.Mutex
}

func NewSessionStateMachine() *SessionStateMachine {
	ssm := &SessionStateMachine{}
	ssm.fsm = fsm.NewFSM(
		SessionPhaseIdle,
		fsm.Events{
			{Name: SessionEventInsert, Src: []string{SessionPhaseIdle, SessionPhaseOpen, SessionPhaseFunded}, Dst: SessionPhaseFunded},
			{Name: SessionEventSelect, Src: []string{SessionPhaseOpen, SessionPhaseFunded}, Dst: SessionPhaseOpen},
			{Name: SessionEventSMS, Src: []string{SessionPhaseIdle, SessionPhaseOpen}, Dst: SessionPhaseOpen},
			{Name: SessionEventRecall, Src: []string{SessionPhaseIdle, SessionPhaseOpen, SessionPhaseFunded}, Dst: SessionPhaseIdle},
		},
		fsm.Callbacks{},
	)
	return ssm
}

func (ssm *SessionStateMachine) CanTransition(phase, event string) bool {
	ssm.mu.Lock()
	defer ssm.mu.Unlock()
	ssm.fsm.SetState(phase)
	return ssm.fsm.Can(event)
}

// AvailableEvents lists the commands accepted in phase.
func (ssm *SessionStateMachine) AvailableEvents(phase string) []string {
	ssm.mu.Lock()
	defer ssm.mu.Unlock()
	ssm.fsm.SetState(phase)
	return ssm.fsm.AvailableTransitions()
}
