// Package config loads converter settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"cardbridge/convert"
	"cardbridge/vcard"
)

// ErrInvalid is wrapped by every validation error returned from Parse.
var ErrInvalid = errors.New("invalid configuration")

// File is the top-level configuration document.
//
//	toJSContact:
//	  defaultLanguage: it
//	  idProfile:
//	    - {family: ADR, id: home}
//	toVCard:
//	  version: "3.0"
type File struct {
	ToJSContact convert.ToJSContactConfig `yaml:"toJSContact"`
	ToVCard     convert.ToVCardConfig     `yaml:"toVCard"`
}

// Default returns the configuration used when no file is given.
func Default() *File {
	return &File{
		ToJSContact: convert.DefaultToJSContactConfig(),
		ToVCard:     convert.DefaultToVCardConfig(),
	}
}

// LoadFile loads and parses a YAML configuration file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data over the defaults. Keys missing from data keep their
// default values.
func Parse(data []byte) (*File, error) {
	f := Default()

	err := yaml.Unmarshal(data, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(f)

	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return f, nil
}

// applyDefaults fills in values an explicit empty key cleared.
func applyDefaults(f *File) {
	if f.ToVCard.Version == "" {
		f.ToVCard.Version = vcard.V40
	}

	if f.ToJSContact.CustomTimezonePrefix == "" {
		f.ToJSContact.CustomTimezonePrefix = "/"
	}

	if f.ToVCard.CustomTimezonePrefix == "" {
		f.ToVCard.CustomTimezonePrefix = "/"
	}

	for i := range f.ToJSContact.IDProfile {
		e := &f.ToJSContact.IDProfile[i]
		e.Family = strings.ToUpper(strings.TrimSpace(e.Family))
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("vcard_version", validateVCardVersion)

	return v
}

func validateVCardVersion(fl validator.FieldLevel) bool {
	return vcard.Version(fl.Field().String()).IsValid()
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// WriteFile writes a File to the given path.
func WriteFile(f *File, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}
