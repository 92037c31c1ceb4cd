package profile

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/sha3"
	"gopkg.in/yaml.v3"
)

// Load decodes a YAML profile. Fields absent from the document keep the
// values of Default, so an override file only needs the keys it changes.
func Load(r io.Reader) (*Profile, error) {
	p := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadFile reads a YAML profile from path.
func LoadFile(path string) (*Profile, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided profile path is intentional
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

// Marshal encodes the profile as YAML.
func (p *Profile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Fingerprint returns a SHA3-256 digest of the encoded profile, so that a
// report can be tied to the exact weights that produced it.
func (p *Profile) Fingerprint() string {
	data, err := p.Marshal()
	if err != nil {
		return ""
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
