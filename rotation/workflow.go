// Package rotation replaces the current credential with a fresh one,
// archiving the superseded credential first.
//
// States:
//
//	no current key  -> generate                      (Generated)
//	current key     -> confirm -> no / unrecognized  (Declined)
//	                           -> yes -> archive -> generate (Rotated)
//
// Archive and regeneration are not one transaction. A crash or failure after
// the snapshot is created but before the new credential is persisted leaves
// the snapshot in place next to the old, still current, credential. Running
// the rotation again recovers; nothing here rolls the snapshot back.
package rotation

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"shuffle.dev/shuffle/home"
	"shuffle.dev/shuffle/keys"
)

// Outcome is the terminal state of a rotation.
type Outcome int

const (
	Generated Outcome = iota + 1
	Declined
	Rotated
)

func (o Outcome) String() string {
	switch o {
	case Generated:
		return "generated"
	case Declined:
		return "declined"
	case Rotated:
		return "rotated"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result describes what a rotation did. Credential is nil when declined;
// Snapshot is nil unless a previous credential was archived.
type Result struct {
	Outcome    Outcome
	Credential *keys.Credential
	Previous   *keys.Credential
	Snapshot   *home.Snapshot
}

// Workflow runs credential rotation against one home layout.
type Workflow struct {
	Layout home.Layout
	Prompt Prompter

	// Now defaults to time.Now.
	Now func() time.Time
	// Rand defaults to crypto/rand.
	Rand   io.Reader
	Logger zerolog.Logger
}

// Question renders the confirmation shown for an existing credential.
func Question(existing *keys.Credential) string {
	return fmt.Sprintf("Key already exists (public key %s)\nAre you sure you want to generate a new key? [y/n]", existing.PublicKeyHex())
}

// Run executes the rotation. A declined confirmation is a successful run with
// Outcome Declined.
func (w *Workflow) Run() (*Result, error) {
	if err := home.EnsureDirectories(w.Layout); err != nil {
		return nil, err
	}

	exists, err := home.HasCredential(w.Layout)
	if err != nil {
		return nil, fmt.Errorf("rotation: detect credential: %w", err)
	}
	if !exists {
		c, err := w.generate()
		if err != nil {
			return nil, err
		}
		w.Logger.Info().Str("address", c.Address.String()).Msg("generated credential")
		return &Result{Outcome: Generated, Credential: c}, nil
	}

	prev, err := home.LoadCredential(w.Layout)
	if err != nil {
		return nil, fmt.Errorf("rotation: load current credential: %w", err)
	}
	if w.Prompt == nil {
		return nil, fmt.Errorf("rotation: no prompter configured")
	}
	answer, err := w.Prompt.Confirm(Question(prev))
	if err != nil {
		return nil, err
	}
	if answer != AnswerYes {
		w.Logger.Info().Stringer("answer", answer).Msg("rotation declined")
		return &Result{Outcome: Declined, Previous: prev}, nil
	}

	snap, err := home.Archive(w.Layout, w.now())
	if err != nil {
		return nil, err
	}
	w.Logger.Info().Str("dir", snap.Dir).Str("address", prev.Address.String()).Msg("archived credential")

	c, err := w.generate()
	if err != nil {
		w.Logger.Error().Err(err).Str("snapshot", snap.Dir).Msg("rotation aborted after archiving")
		return nil, err
	}
	w.Logger.Info().Str("address", c.Address.String()).Msg("rotated credential")
	return &Result{Outcome: Rotated, Credential: c, Previous: prev, Snapshot: &snap}, nil
}

func (w *Workflow) generate() (*keys.Credential, error) {
	c, err := keys.Generate(w.Rand)
	if err != nil {
		return nil, err
	}
	if err := home.PersistCredential(w.Layout, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}
