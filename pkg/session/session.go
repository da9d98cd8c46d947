package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charlieegan3/exiflab/pkg/exif"
	"github.com/charlieegan3/exiflab/pkg/fields"
	"github.com/charlieegan3/exiflab/pkg/jpeg"
	"github.com/charlieegan3/exiflab/pkg/profiles"
)

var (
	ErrInvalidState  = errors.New("invalid session state")
	ErrUnknownAction = errors.New("unknown action")
)

type State string

const (
	StateEmpty   State = "empty"
	StateLoaded  State = "loaded"
	StateEdited  State = "edited"
	StateApplied State = "applied"
)

// Action is a quick edit that clears a group of fields.
type Action string

const (
	ActionClearPrivacy Action = "clear-privacy"
	ActionClearDevice  Action = "clear-device"
	ActionClearAll     Action = "clear-all"
)

type Options struct {
	Catalog *profiles.Catalog
	Fields  fields.Options
}

// Session is one edit of one image. The original block is read once on load and
// never modified; edits live in the fields until they are applied to a copy.
type Session struct {
	opts Options

	state    State
	source   []byte
	original *exif.Block
	fields   fields.Fields
	output   []byte
	warning  string
}

func New(opts Options) *Session {
	return &Session{opts: opts, state: StateEmpty}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) require(op string, states ...State) error {
	for _, st := range states {
		if s.state == st {
			return nil
		}
	}

	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, op, s.state)
}

// Load reads the metadata of a JPEG. Metadata that cannot be read does not fail the
// load: the session starts from what could be read and records a warning.
func (s *Session) Load(source []byte) error {
	if err := s.require("load", StateEmpty); err != nil {
		return err
	}

	original, f, warning, err := s.read(source)
	if err != nil {
		return err
	}

	s.source = source
	s.original = original
	s.fields = f
	s.warning = warning
	s.state = StateLoaded

	return nil
}

func (s *Session) read(source []byte) (*exif.Block, fields.Fields, string, error) {
	payload, err := jpeg.Extract(source)
	if err != nil {
		return nil, fields.Fields{}, "", fmt.Errorf("failed to scan image: %w", err)
	}
	if payload == nil {
		return nil, fields.Fields{}, "", nil
	}

	var warnings []string

	original, err := exif.DecodeLenient(payload)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("metadata could not be fully read: %s", err))
	}
	if original.Empty() {
		original = nil
	}

	var f fields.Fields
	if original != nil {
		f, err = fields.FromBlock(original)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("some fields could not be read: %s", err))
		}
		if s.opts.Catalog != nil {
			if p, ok := s.opts.Catalog.Match(f.Make, f.Model); ok {
				f.Device = p.Name
			}
		}
	}

	return original, f, strings.Join(warnings, "; "), nil
}

// HasMetadata reports whether the source carried a readable metadata block.
func (s *Session) HasMetadata() bool {
	return s.original != nil
}

// Original returns a copy of the block read from the source, or nil.
func (s *Session) Original() *exif.Block {
	if s.original == nil {
		return nil
	}

	return s.original.Clone()
}

func (s *Session) Warning() string {
	return s.warning
}

func (s *Session) Fields() fields.Fields {
	return s.fields
}

func (s *Session) SetFields(f fields.Fields) error {
	if err := s.require("edit", StateLoaded, StateEdited); err != nil {
		return err
	}

	s.fields = f
	s.state = StateEdited

	return nil
}

// UseDevice copies a named profile into the fields.
func (s *Session) UseDevice(name string) error {
	if err := s.require("edit", StateLoaded, StateEdited); err != nil {
		return err
	}
	if s.opts.Catalog == nil {
		return fmt.Errorf("%w: %q", profiles.ErrUnknownProfile, name)
	}

	p, err := s.opts.Catalog.Get(name)
	if err != nil {
		return err
	}

	f := s.fields
	if err := f.UseProfile(p); err != nil {
		return err
	}

	return s.SetFields(f)
}

func (s *Session) Perform(a Action) error {
	if err := s.require("edit", StateLoaded, StateEdited); err != nil {
		return err
	}

	f := s.fields
	switch a {
	case ActionClearPrivacy:
		f.ClearPrivacy()
	case ActionClearDevice:
		f.ClearDevice()
	case ActionClearAll:
		f.ClearAll()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}

	return s.SetFields(f)
}

// ReloadOriginal drops every edit and reads the fields from the original again.
func (s *Session) ReloadOriginal() error {
	if err := s.require("reload", StateLoaded, StateEdited); err != nil {
		return err
	}

	var f fields.Fields
	if s.original != nil {
		// errors were reported as a warning on load
		f, _ = fields.FromBlock(s.original)
		if s.opts.Catalog != nil {
			if p, ok := s.opts.Catalog.Match(f.Make, f.Model); ok {
				f.Device = p.Name
			}
		}
	}

	s.fields = f
	s.state = StateLoaded

	return nil
}

func (s *Session) Changes() []fields.Change {
	return fields.Changes(s.original, s.fields, s.opts.Fields)
}

// Apply writes the fields into a copy of the original block and splices it into the
// source. On error the session is unchanged.
func (s *Session) Apply() ([]byte, error) {
	if err := s.require("apply", StateLoaded, StateEdited); err != nil {
		return nil, err
	}

	working := exif.NewBlock()
	if s.original != nil {
		working = s.original.Clone()
	}

	if err := fields.Apply(working, s.fields, s.opts.Fields); err != nil {
		return nil, fmt.Errorf("failed to apply fields: %w", err)
	}

	segment, err := exif.Encode(working)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	output, err := jpeg.Replace(segment, s.source)
	if err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}

	s.output = output
	s.state = StateApplied

	return output, nil
}

func (s *Session) Output() ([]byte, error) {
	if err := s.require("download", StateApplied); err != nil {
		return nil, err
	}

	return s.output, nil
}

// Discard drops the generated output and returns to editing.
func (s *Session) Discard() error {
	if err := s.require("discard", StateApplied); err != nil {
		return err
	}

	s.output = nil
	s.state = StateEdited

	return nil
}

func (s *Session) Reset() {
	*s = Session{opts: s.opts, state: StateEmpty}
}

// Snapshot is the part of a session kept between requests. The source and output
// bytes are stored separately.
type Snapshot struct {
	State   State         `json:"state"`
	Fields  fields.Fields `json:"fields"`
	Warning string        `json:"warning,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{State: s.state, Fields: s.fields, Warning: s.warning}
}

// Restore rebuilds a session from a snapshot, its source and, once applied, its
// output.
func Restore(opts Options, snap Snapshot, source, output []byte) (*Session, error) {
	s := New(opts)
	if snap.State == StateEmpty || snap.State == "" {
		return s, nil
	}

	original, _, _, err := s.read(source)
	if err != nil {
		return nil, err
	}

	switch snap.State {
	case StateLoaded, StateEdited:
	case StateApplied:
		if output == nil {
			return nil, fmt.Errorf("%w: applied session without output", ErrInvalidState)
		}
		s.output = output
	default:
		return nil, fmt.Errorf("%w: unknown state %q", ErrInvalidState, snap.State)
	}

	s.state = snap.State
	s.source = source
	s.original = original
	s.fields = snap.Fields
	s.warning = snap.Warning

	return s, nil
}

// OutputName derives the download name from the uploaded file name.
func OutputName(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "image"
	}

	return base + "_exiflab.jpeg"
}
