// Package session drives one download: resolve the page, borrow its auth,
// list versions, then fetch, archive and save the chosen one.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/appsnap/cli/internal/relay"
	"github.com/appsnap/cli/internal/target"
	"github.com/appsnap/cli/pkg/appbuilder"
	"github.com/appsnap/cli/pkg/util"
)

var (
	// ErrInvalidState is returned when an operation is called out of order.
	ErrInvalidState = errors.New("invalid session state")
	// ErrDownloadInProgress is returned by a Download that overlaps another.
	ErrDownloadInProgress = errors.New("download already in progress")
	// ErrNoSuchVersion is returned when a version id or index does not match.
	ErrNoSuchVersion = errors.New("no such version")
)

// API is the subset of the App Builder client a session calls.
type API interface {
	ListVersions(ctx context.Context, ref target.Ref, snap relay.AuthSnapshot) ([]appbuilder.Version, error)
	FetchFiles(ctx context.Context, ref target.Ref, snap relay.AuthSnapshot, versionID string) (appbuilder.FileSet, error)
}

// AuthSource answers a single auth request. *relay.Client satisfies it.
type AuthSource interface {
	GetAuth(ctx context.Context) (relay.AuthSnapshot, error)
}

// Observer is told about every transition. err is set only when to is
// StateError.
type Observer func(from, to State, err error)

// Config wires a Session to its collaborators.
type Config struct {
	API  API
	Auth AuthSource
	// Fs and Dir say where the archive is written.
	Fs  afero.Fs
	Dir string
	// Now stamps the archive name. Defaults to time.Now.
	Now      func() time.Time
	Observer Observer
}

// Result describes a saved archive.
type Result struct {
	Path    string             `json:"path"`
	Target  target.Ref         `json:"target"`
	Version appbuilder.Version `json:"version"`
	Files   int                `json:"files"`
	Bytes   int                `json:"bytes"`
}

// Session is a single-use download session. Once it reaches Saved or Error
// it stays there.
type Session struct {
	cfg Config

	mu       sync.Mutex
	state    State
	err      error
	ref      target.Ref
	snap     relay.AuthSnapshot
	versions []appbuilder.Version

	download sync.Mutex
}

// New returns a session in StateInit.
func New(cfg Config) *Session {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{cfg: cfg}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that moved the session to StateError, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Target returns the resolved target. It is zero before resolving.
func (s *Session) Target() target.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ref
}

// Versions returns the listed versions, newest first.
func (s *Session) Versions() []appbuilder.Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]appbuilder.Version(nil), s.versions...)
}

// Open resolves pageURL, requests a snapshot from the relay and lists the
// app's versions. On success the session is awaiting selection.
func (s *Session) Open(ctx context.Context, pageURL string) ([]appbuilder.Version, error) {
	if err := s.advance(StateInit, StateResolving); err != nil {
		return nil, err
	}
	ref, err := target.Resolve(pageURL)
	if err != nil {
		return nil, s.fail(err)
	}
	s.mu.Lock()
	s.ref = ref
	s.mu.Unlock()

	if err := s.advance(StateResolving, StateAuthenticating); err != nil {
		return nil, err
	}
	snap, err := s.cfg.Auth.GetAuth(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if err := s.advance(StateAuthenticating, StateListingVersions); err != nil {
		return nil, err
	}
	versions, err := s.cfg.API.ListVersions(ctx, ref, snap)
	if err != nil {
		return nil, s.fail(err)
	}
	s.mu.Lock()
	s.versions = versions
	s.mu.Unlock()

	if err := s.advance(StateListingVersions, StateAwaitingSelection); err != nil {
		return nil, err
	}
	return s.Versions(), nil
}

// Select returns the listed version at index. A bad index fails the
// session.
func (s *Session) Select(index int) (appbuilder.Version, error) {
	return s.choose(func(versions []appbuilder.Version) (appbuilder.Version, error) {
		return SelectVersion(versions, index)
	})
}

// SelectByID returns the listed version with the given id. An unknown id
// fails the session.
func (s *Session) SelectByID(id string) (appbuilder.Version, error) {
	return s.choose(func(versions []appbuilder.Version) (appbuilder.Version, error) {
		return SelectVersionByID(versions, id)
	})
}

func (s *Session) choose(pick func([]appbuilder.Version) (appbuilder.Version, error)) (appbuilder.Version, error) {
	s.mu.Lock()
	cur, recorded, versions := s.state, s.err, s.versions
	s.mu.Unlock()
	switch cur {
	case StateError:
		return appbuilder.Version{}, recorded
	case StateAwaitingSelection:
	default:
		return appbuilder.Version{}, fmt.Errorf("%w: cannot select a version in %s", ErrInvalidState, cur)
	}
	v, err := pick(versions)
	if err != nil {
		return appbuilder.Version{}, s.fail(err)
	}
	return v, nil
}

// Abort fails a session that has not finished, for example when the user
// cancels the version prompt. It returns err.
func (s *Session) Abort(err error) error {
	return s.fail(err)
}

// Download fetches the files of v, zips them and saves the archive. v must
// be one of the listed versions. Only one Download runs at a time; an
// overlapping call returns ErrDownloadInProgress without touching the
// session.
func (s *Session) Download(ctx context.Context, v appbuilder.Version) (*Result, error) {
	if !s.download.TryLock() {
		return nil, ErrDownloadInProgress
	}
	defer s.download.Unlock()

	if err := s.advance(StateAwaitingSelection, StateDownloadingFiles); err != nil {
		return nil, err
	}
	s.mu.Lock()
	ref, snap, versions := s.ref, s.snap, s.versions
	s.mu.Unlock()

	if _, err := SelectVersionByID(versions, v.VersionID); err != nil {
		return nil, s.fail(err)
	}

	files, err := s.cfg.API.FetchFiles(ctx, ref, snap, v.VersionID)
	if err != nil {
		return nil, s.fail(err)
	}

	if err := s.advance(StateDownloadingFiles, StateArchiving); err != nil {
		return nil, err
	}
	blob, err := util.BuildArchive(files)
	if err != nil {
		return nil, s.fail(err)
	}
	path, err := util.SaveArchive(s.cfg.Fs, s.cfg.Dir, blob, ref.AppID, s.cfg.Now())
	if err != nil {
		return nil, s.fail(err)
	}

	if err := s.advance(StateArchiving, StateSaved); err != nil {
		return nil, err
	}
	return &Result{
		Path:    path,
		Target:  ref,
		Version: v,
		Files:   len(files),
		Bytes:   len(blob),
	}, nil
}

// advance moves from -> to. A session in StateError returns its recorded
// error; any other mismatch is ErrInvalidState.
func (s *Session) advance(from, to State) error {
	s.mu.Lock()
	cur := s.state
	if cur == StateError {
		err := s.err
		s.mu.Unlock()
		return err
	}
	if cur != from || !canTransition(from, to) {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot go from %s to %s", ErrInvalidState, cur, to)
	}
	s.state = to
	s.mu.Unlock()

	s.notify(from, to, nil)
	return nil
}

// fail records err and moves the session to StateError.
func (s *Session) fail(err error) error {
	s.mu.Lock()
	from := s.state
	if !canTransition(from, StateError) {
		s.mu.Unlock()
		return err
	}
	s.state = StateError
	s.err = err
	s.mu.Unlock()

	s.notify(from, StateError, err)
	return err
}

func (s *Session) notify(from, to State, err error) {
	if s.cfg.Observer != nil {
		s.cfg.Observer(from, to, err)
	}
}
