package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/charlieegan3/exiflab/pkg/exif"
	"github.com/charlieegan3/exiflab/pkg/fields"
	"github.com/charlieegan3/exiflab/pkg/jpeg"
	"github.com/charlieegan3/exiflab/pkg/profiles"
	"github.com/charlieegan3/exiflab/pkg/test"
)

func options(t *testing.T) Options {
	t.Helper()

	c, err := profiles.Embedded()
	if err != nil {
		t.Fatalf("failed to load profiles: %s", err)
	}

	return Options{Catalog: c, Fields: fields.Options{DefaultSoftware: "ExifLab"}}
}

func sourceWithMetadata(t *testing.T) []byte {
	t.Helper()

	b := exif.NewBlock()
	b.Image.Set(exif.ASCII(exif.TagMake, "Samsung"))
	b.Image.Set(exif.ASCII(exif.TagModel, "SM-S928U"))
	b.Image.Set(exif.Short(exif.TagOrientation, 3))
	b.Capture.Set(exif.ASCII(exif.TagDateTimeOriginal, "2024:01:20 09:15:00"))
	if err := fields.SetCoordinates(&b.GPS, 40.7128, -74.006); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	segment, err := exif.Encode(b)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	source, err := jpeg.Splice(segment, test.JPEG(t, 16, 16))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	return source
}

func decodeOutput(t *testing.T, output []byte) *exif.Block {
	t.Helper()

	payload, err := jpeg.Extract(output)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if payload == nil {
		t.Fatalf("output has no metadata")
	}
	b, err := exif.Decode(payload)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	return b
}

func TestLifecycle(t *testing.T) {
	s := New(options(t))
	if s.State() != StateEmpty {
		t.Fatalf("expected empty session, got %s", s.State())
	}

	if err := s.Load(sourceWithMetadata(t)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if s.State() != StateLoaded || !s.HasMetadata() {
		t.Fatalf("expected loaded session with metadata")
	}
	if s.Fields().Device != "Samsung Galaxy S24 Ultra" {
		t.Fatalf("expected device to be matched, got %q", s.Fields().Device)
	}

	if err := s.UseDevice("Apple iPhone 15 Pro"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := s.Perform(ActionClearPrivacy); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if s.State() != StateEdited {
		t.Fatalf("expected edited session, got %s", s.State())
	}

	output, err := s.Apply()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if s.State() != StateApplied {
		t.Fatalf("expected applied session, got %s", s.State())
	}

	b := decodeOutput(t, output)
	model, _ := b.Image.Get(exif.TagModel)
	if v, _ := model.String(); v != "iPhone 15 Pro" {
		t.Fatalf("unexpected model %q", v)
	}
	if b.GPS.Len() != 0 {
		t.Fatalf("expected gps to be cleared")
	}
	if _, ok := b.Capture.Get(exif.TagDateTimeOriginal); ok {
		t.Fatalf("expected date time to be cleared")
	}
	orientation, _ := b.Image.Get(exif.TagOrientation)
	if ints, _ := orientation.Ints(); len(ints) != 1 || ints[0] != 3 {
		t.Fatalf("expected orientation to be kept, got %v", ints)
	}

	original := s.Original()
	model, _ = original.Image.Get(exif.TagModel)
	if v, _ := model.String(); v != "SM-S928U" {
		t.Fatalf("original block was modified: %q", v)
	}

	if err := s.SetFields(fields.Fields{}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected edits to be refused while applied, got %v", err)
	}

	if err := s.Discard(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if s.State() != StateEdited || s.Fields().Model != "iPhone 15 Pro" {
		t.Fatalf("expected edits to survive a discard")
	}
	if _, err := s.Output(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected no output after discard, got %v", err)
	}

	if err := s.ReloadOriginal(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if s.State() != StateLoaded || s.Fields().Model != "SM-S928U" || s.Fields().Latitude == nil {
		t.Fatalf("expected original fields, got %+v", s.Fields())
	}

	s.Reset()
	if s.State() != StateEmpty || s.HasMetadata() {
		t.Fatalf("expected empty session after reset")
	}
}

func TestInvalidTransitions(t *testing.T) {
	s := New(options(t))

	if _, err := s.Apply(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected apply on empty session to fail, got %v", err)
	}
	if err := s.Discard(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected discard on empty session to fail, got %v", err)
	}
	if err := s.Perform(ActionClearAll); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected edit on empty session to fail, got %v", err)
	}

	if err := s.Load(test.JPEG(t, 8, 8)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := s.Load(test.JPEG(t, 8, 8)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected second load to fail, got %v", err)
	}
	if err := s.Discard(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected discard before apply to fail, got %v", err)
	}
	if err := s.UseDevice("Nokia 3310"); !errors.Is(err, profiles.ErrUnknownProfile) {
		t.Fatalf("expected unknown profile, got %v", err)
	}
	if err := s.Perform(Action("clear-everything")); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected unknown action, got %v", err)
	}
	if s.State() != StateLoaded {
		t.Fatalf("failed edit changed state to %s", s.State())
	}
}

func TestLoadWithoutMetadata(t *testing.T) {
	s := New(options(t))
	source := test.JPEG(t, 8, 8)

	if err := s.Load(source); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if s.HasMetadata() || s.Warning() != "" {
		t.Fatalf("expected no metadata and no warning")
	}

	// apply straight from loaded
	output, err := s.Apply()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	b := decodeOutput(t, output)
	software, _ := b.Image.Get(exif.TagSoftware)
	if v, _ := software.String(); v != "ExifLab" {
		t.Fatalf("expected software stamp, got %q", v)
	}
}

func TestLoadRejectsNonJPEG(t *testing.T) {
	s := New(options(t))

	if err := s.Load(test.PNG(t, 8, 8)); !errors.Is(err, jpeg.ErrUnsupportedContainer) {
		t.Fatalf("expected ErrUnsupportedContainer, got %v", err)
	}
	if s.State() != StateEmpty {
		t.Fatalf("expected session to stay empty")
	}
}

func TestLoadRecoversFromCorruptMetadata(t *testing.T) {
	segment := append(append([]byte{}, exif.Preamble...),
		'M', 'M', 0, 42, 0, 0, 0, 8,
		0, 1,
		0x88, 0x25, 0, 4, 0, 0, 0, 1, 0, 0, 0xFF, 0xFF,
		0, 0, 0, 0)
	source, err := jpeg.Splice(segment, test.JPEG(t, 8, 8))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	s := New(options(t))
	if err := s.Load(source); err != nil {
		t.Fatalf("expected load to recover, got %s", err)
	}
	if s.Warning() == "" {
		t.Fatalf("expected a warning")
	}
	if s.HasMetadata() {
		t.Fatalf("expected unreadable metadata to be treated as none")
	}

	if err := s.SetFields(fields.Fields{Make: "Canon", Model: "Canon EOS R5"}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	output, err := s.Apply()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	segments, err := jpeg.Segments(output)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	count := 0
	for _, seg := range segments {
		if seg.IsExif() {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one metadata segment, got %d", count)
	}
}

func TestApplyFailureKeepsState(t *testing.T) {
	s := New(options(t))
	if err := s.Load(sourceWithMetadata(t)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	lat := 95.0
	f := s.Fields()
	f.Latitude = &lat
	if err := s.SetFields(f); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if _, err := s.Apply(); !errors.Is(err, fields.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
	if s.State() != StateEdited {
		t.Fatalf("expected state to stay edited, got %s", s.State())
	}
}

func sourceWithExposure(t *testing.T) []byte {
	t.Helper()

	b := exif.NewBlock()
	b.Image.Set(exif.ASCII(exif.TagMake, "Google"))
	b.Image.Set(exif.ASCII(exif.TagModel, "Pixel 7"))
	b.Image.Set(exif.ASCII(exif.TagSoftware, "HDR+ 1.0"))
	b.Capture.Set(exif.Rationals(exif.TagExposureTime, exif.Rational{Num: 8333, Den: 1000000}))
	b.Capture.Set(exif.Rationals(exif.TagFNumber, exif.Rational{Num: 175, Den: 100}))
	b.Capture.Set(exif.Rationals(exif.TagFocalLength, exif.Rational{Num: 630, Den: 100}))
	b.Capture.Set(exif.ASCII(exif.TagDateTimeOriginal, "2023-10-01 08:00"))

	segment, err := exif.Encode(b)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	source, err := jpeg.Splice(segment, test.JPEG(t, 16, 16))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	return source
}

func TestApplyWithoutEditsKeepsMetadata(t *testing.T) {
	s := New(options(t))
	if err := s.Load(sourceWithExposure(t)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if s.Warning() == "" {
		t.Fatalf("expected a warning for the malformed date time")
	}

	output, err := s.Apply()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if b := decodeOutput(t, output); !b.Equal(s.Original()) {
		t.Fatalf("expected metadata to be unchanged, got %+v", b.Capture.Entries())
	}
}

func TestUseDeviceWritesExactValues(t *testing.T) {
	opts := options(t)
	source := sourceWithExposure(t)

	s := New(opts)
	if err := s.Load(source); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := s.UseDevice("Google Pixel 8 Pro"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	// the snapshot is persisted as json between requests
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	restored, err := Restore(opts, snap, source, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	output, err := restored.Apply()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	b := decodeOutput(t, output)

	for tag, expected := range map[exif.Tag]exif.Rational{
		exif.TagFocalLength:  {Num: 69, Den: 10},
		exif.TagFNumber:      {Num: 17, Den: 10},
		exif.TagExposureTime: {Num: 1, Den: 120},
	} {
		e, ok := b.Capture.Get(tag)
		if !ok {
			t.Fatalf("missing tag 0x%04X", tag)
		}
		if rs, _ := e.Rationals(); len(rs) != 1 || rs[0] != expected {
			t.Fatalf("tag 0x%04X: expected %v, got %v", tag, expected, rs)
		}
	}

	taken, _ := b.Capture.Get(exif.TagDateTimeOriginal)
	if v, _ := taken.String(); v != "2023-10-01 08:00" {
		t.Fatalf("expected unparseable date time to be kept, got %q", v)
	}
}

func TestSnapshotRestore(t *testing.T) {
	opts := options(t)
	source := sourceWithMetadata(t)

	s := New(opts)
	if err := s.Load(source); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := s.UseDevice("Sony a1"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	output, err := s.Apply()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	restored, err := Restore(opts, s.Snapshot(), source, output)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if restored.State() != StateApplied || restored.Fields() != s.Fields() {
		t.Fatalf("restored session differs")
	}
	if !restored.Original().Equal(s.Original()) {
		t.Fatalf("restored original block differs")
	}
	got, err := restored.Output()
	if err != nil || !bytes.Equal(got, output) {
		t.Fatalf("restored output differs: %v", err)
	}

	if _, err := Restore(opts, Snapshot{State: StateApplied}, source, nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected applied snapshot without output to fail, got %v", err)
	}
	if _, err := Restore(opts, Snapshot{State: "weird"}, source, nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected unknown state to fail, got %v", err)
	}
}

func TestOutputName(t *testing.T) {
	testCases := map[string]string{
		"holiday.png":      "holiday_exiflab.jpeg",
		"dir/IMG_0001.JPG": "IMG_0001_exiflab.jpeg",
		"archive.tar.gz":   "archive.tar_exiflab.jpeg",
		"":                 "image_exiflab.jpeg",
		"no-extension":     "no-extension_exiflab.jpeg",
	}

	for input, expected := range testCases {
		if got := OutputName(input); got != expected {
			t.Fatalf("%q: expected %q, got %q", input, expected, got)
		}
	}
}
