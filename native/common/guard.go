package common

import "errors"

// Module names accepted by the pause switch.
const (
	ModuleStream = "stream"
	ModuleEscrow = "escrow"
)

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a custody module has been administratively frozen.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects mutating operations on a paused module. A nil view means no
// pause policy is configured and every module is live.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
