package profiles

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/charlieegan3/exiflab/pkg/exif"
)

var ErrUnknownProfile = errors.New("unknown device profile")

//go:embed profiles.yaml
var embedded []byte

// Fraction is a rational written as [numerator, denominator].
type Fraction []uint32

// Defined reports whether the fraction was set in the catalog.
func (f Fraction) Defined() bool {
	return len(f) == 2
}

func (f Fraction) Rational() exif.Rational {
	if !f.Defined() {
		return exif.Rational{}
	}

	return exif.Rational{Num: f[0], Den: f[1]}
}

// Capture holds the optional capture defaults of a profile.
type Capture struct {
	FNumber      Fraction `yaml:"fnumber,omitempty" json:"fnumber,omitempty"`
	ExposureTime Fraction `yaml:"exposure_time,omitempty" json:"exposure_time,omitempty"`
	ISO          uint16   `yaml:"iso,omitempty" json:"iso,omitempty"`
	FocalLength  Fraction `yaml:"focal_length,omitempty" json:"focal_length,omitempty"`
	LensModel    string   `yaml:"lens_model,omitempty" json:"lens_model,omitempty"`
}

type Profile struct {
	Name     string  `yaml:"name" json:"name"`
	Make     string  `yaml:"make" json:"make"`
	Model    string  `yaml:"model" json:"model"`
	Software string  `yaml:"software,omitempty" json:"software,omitempty"`
	Capture  Capture `yaml:"exif" json:"exif"`
}

func (p Profile) validate() error {
	if p.Name == "" {
		return errors.New("profile without a name")
	}
	if p.Make == "" || p.Model == "" {
		return fmt.Errorf("profile %q: make and model are required", p.Name)
	}

	for field, f := range map[string]Fraction{
		"fnumber":       p.Capture.FNumber,
		"exposure_time": p.Capture.ExposureTime,
		"focal_length":  p.Capture.FocalLength,
	} {
		if f == nil {
			continue
		}
		if !f.Defined() {
			return fmt.Errorf("profile %q: %s must have two elements", p.Name, field)
		}
		if f[1] == 0 {
			return fmt.Errorf("profile %q: %s: %w", p.Name, field, exif.ErrZeroDenominator)
		}
	}

	return nil
}

// Catalog is a read-only set of device profiles, in the order they were listed.
type Catalog struct {
	profiles []Profile
	byName   map[string]int
}

func Load(r io.Reader) (*Catalog, error) {
	doc := struct {
		Profiles []Profile `yaml:"profiles"`
	}{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}

	c := &Catalog{byName: make(map[string]int, len(doc.Profiles))}
	for _, p := range doc.Profiles {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, ok := c.byName[p.Name]; ok {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}

		c.byName[p.Name] = len(c.profiles)
		c.profiles = append(c.profiles, p)
	}

	return c, nil
}

// LoadFile reads a catalog from path, or the built in catalog when path is empty.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Embedded()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiles file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

func Embedded() (*Catalog, error) {
	return Load(bytes.NewReader(embedded))
}

func (c *Catalog) Get(name string) (Profile, error) {
	i, ok := c.byName[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}

	return c.profiles[i], nil
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.profiles))
	for _, p := range c.profiles {
		names = append(names, p.Name)
	}

	return names
}

func (c *Catalog) All() []Profile {
	return append([]Profile(nil), c.profiles...)
}

// Match finds the profile for a make and model as written in a metadata block.
func (c *Catalog) Match(deviceMake, model string) (Profile, bool) {
	for _, p := range c.profiles {
		if strings.EqualFold(p.Make, strings.TrimSpace(deviceMake)) && strings.EqualFold(p.Model, strings.TrimSpace(model)) {
			return p, true
		}
	}

	return Profile{}, false
}
