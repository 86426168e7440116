package terrain

import (
	"encoding/json"
	"fmt"
	"math"
)

// CleanState is the SelfClean state machine.
type CleanState uint8

const (
	CleanIdle CleanState = iota
	CleanCleaning
)

func (s CleanState) String() string {
	if s == CleanCleaning {
		return "cleaning"
	}
	return "idle"
}

// SelfClean removes filth from its cell one thickness step at a time.
//
// Progress is NaN while unset. After every thinning step it is unset again
// so the next tick reloads the work requirement from the thinner filth.
type SelfClean struct {
	Base

	progress float64
	target   Filth

	// pendingID is a restored target reference, resolved in PostLoad.
	pendingID string
	// stalled suppresses repeated warnings for filth without cleaning data.
	stalled bool
}

func newSelfClean(base Base) Component {
	return &SelfClean{Base: base, progress: math.NaN()}
}

// State reports whether a target is held.
func (s *SelfClean) State() CleanState {
	if s.target == nil {
		return CleanIdle
	}
	return CleanCleaning
}

// Progress returns the remaining work and whether it is set.
func (s *SelfClean) Progress() (float64, bool) {
	return s.progress, !math.IsNaN(s.progress)
}

// Target returns the filth being cleaned, if any.
func (s *SelfClean) Target() (Filth, bool) {
	return s.target, s.target != nil
}

// CanClean gates cleaning work.
func (s *SelfClean) CanClean() bool { return true }

// Tick performs one unit of cleaning work.
func (s *SelfClean) Tick() {
	if s.CanClean() {
		s.DoCleanWork()
	}
}

// DoCleanWork advances the state machine by one tick.
func (s *SelfClean) DoCleanWork() {
	if s.target != nil && s.target.Destroyed() {
		s.target = nil
	}
	if s.target == nil {
		s.progress = math.NaN()
		if !s.FindFilth() {
			return
		}
	}

	if math.IsNaN(s.progress) {
		s.StartClean()
		if math.IsNaN(s.progress) {
			return
		}
	}

	s.progress -= s.spec.CleanRate
	if s.progress <= 0 {
		s.FinishClean()
	}
}

// FindFilth acquires the first filth on the cell as the target.
func (s *SelfClean) FindFilth() bool {
	if s.target != nil {
		return true
	}
	f, ok := s.Services().Things.FilthAt(s.Cell())
	if !ok || f == nil || f.Destroyed() {
		return false
	}
	s.target = f
	s.stalled = false
	return true
}

// StartClean loads the work requirement from the target.
func (s *SelfClean) StartClean() {
	if s.target == nil {
		s.Logger().Warn("cannot start clean: no filth selected")
		return
	}
	work, ok := s.target.CleaningWork()
	if !ok {
		if !s.stalled {
			s.Logger().Warn("filth has no cleaning work data", "filth", s.target.ID())
			s.stalled = true
		}
		return
	}
	s.progress = work
}

// FinishClean thins the target by one step.
func (s *SelfClean) FinishClean() {
	if s.target == nil {
		s.Logger().Warn("cannot finish clean: no filth selected")
		return
	}
	s.target.Thin()
	if s.target.Destroyed() {
		s.target = nil
	}
	s.progress = math.NaN()
}

// PostLoad resolves the restored target reference.
func (s *SelfClean) PostLoad() {
	if s.pendingID == "" {
		return
	}
	id := s.pendingID
	s.pendingID = ""
	f, ok := s.Services().Things.FilthByID(id)
	if !ok || f.Destroyed() {
		s.Logger().Debug("restored filth target no longer exists", "filth", id)
		s.progress = math.NaN()
		return
	}
	s.target = f
}

type selfCleanState struct {
	CleanProgress *float64 `json:"clean_progress"`
	Filth         string   `json:"filth,omitempty"`
}

// SaveState implements Persistent.
func (s *SelfClean) SaveState() (json.RawMessage, error) {
	var st selfCleanState
	if !math.IsNaN(s.progress) {
		p := s.progress
		st.CleanProgress = &p
	}
	switch {
	case s.target != nil:
		st.Filth = s.target.ID()
	case s.pendingID != "":
		st.Filth = s.pendingID
	}
	return json.Marshal(st)
}

// LoadState implements Persistent.
func (s *SelfClean) LoadState(data json.RawMessage) error {
	var st selfCleanState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("self_clean state: %w", err)
	}
	s.progress = math.NaN()
	if st.CleanProgress != nil {
		s.progress = *st.CleanProgress
	}
	s.target = nil
	s.pendingID = st.Filth
	return nil
}

func init() {
	RegisterComponent(CompSelfClean, newSelfClean)
}
