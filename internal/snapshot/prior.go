package snapshot

import (
	stderrors "errors"
	"io/fs"

	"sjsage522/ebookdealworker/pkg/errors"
)

// PriorStatus describes how the previous snapshot was obtained
type PriorStatus int

const (
	PriorLoaded PriorStatus = iota
	PriorMissing
	PriorCorrupt
)

func (s PriorStatus) String() string {
	switch s {
	case PriorLoaded:
		return "loaded"
	case PriorMissing:
		return "missing"
	case PriorCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// PriorState is the previous run's snapshot reduced to what change detection needs
type PriorState struct {
	Status     PriorStatus
	Version    int
	Signatures map[string]string
	Cards      map[string][]string
}

// EmptyPrior is the state used when no previous snapshot is usable
func EmptyPrior(status PriorStatus) PriorState {
	return PriorState{
		Status:     status,
		Signatures: map[string]string{},
		Cards:      map[string][]string{},
	}
}

// PriorFromSnapshot builds a prior state from a loaded snapshot
func PriorFromSnapshot(s *Snapshot) PriorState {
	prior := EmptyPrior(PriorLoaded)
	prior.Version = s.ParserVersion
	for _, item := range s.Items {
		prior.Signatures[item.Platform] = item.Signature
		prior.Cards[item.Platform] = item.CardTitles
	}
	return prior
}

// CardsFor returns the platform's previous card list, nil when unknown
func (p PriorState) CardsFor(platform string) []string {
	return p.Cards[platform]
}

// LoadPrior reads the previous snapshot from store. It never fails the run: a missing
// file yields PriorMissing, anything unreadable yields PriorCorrupt. The returned error
// is for logging only.
func LoadPrior(store Store) (PriorState, error) {
	s, err := store.Load()
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return EmptyPrior(PriorMissing), nil
		}
		return EmptyPrior(PriorCorrupt), errors.NewPriorState("failed to load previous snapshot", err)
	}
	return PriorFromSnapshot(s), nil
}
