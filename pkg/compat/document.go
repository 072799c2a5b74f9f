package compat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
)

// Status is the server status document. Field order is part of the wire
// format: clients compare the body byte for byte.
type Status struct {
	Installed      bool   `json:"installed" mapstructure:"installed" yaml:"installed"`
	Maintenance    bool   `json:"maintenance" mapstructure:"maintenance" yaml:"maintenance"`
	NeedsDbUpgrade bool   `json:"needsDbUpgrade" mapstructure:"needs_db_upgrade" yaml:"needs_db_upgrade"`
	Version        string `json:"version" mapstructure:"version" yaml:"version"`
	VersionString  string `json:"versionstring" mapstructure:"versionstring" yaml:"versionstring"`
	Edition        string `json:"edition" mapstructure:"edition" yaml:"edition"`
	ProductName    string `json:"productname" mapstructure:"productname" yaml:"productname"`
}

// DefaultStatus is the status advertised to clients unless configured.
func DefaultStatus() Status {
	return Status{
		Installed:      true,
		Maintenance:    false,
		NeedsDbUpgrade: false,
		Version:        "10.0.3.3",
		VersionString:  "10.0.3",
		Edition:        "Community",
		ProductName:    "HPI Schul-Cloud",
	}
}

// Document is a JSON body that can be swapped while requests read it.
type Document struct {
	body atomic.Pointer[[]byte]
	path string
}

// NewDocument encodes v once and serves the result.
func NewDocument(v any) (*Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	d := &Document{}
	d.body.Store(&data)
	return d, nil
}

// LoadDocument reads a JSON document from path. Reload re-reads it.
func LoadDocument(path string) (*Document, error) {
	d := &Document{path: path}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Bytes returns the current body. The slice must not be modified.
func (d *Document) Bytes() []byte {
	if d == nil {
		return []byte("{}")
	}
	return *d.body.Load()
}

// Path returns the backing file, or "" for static documents.
func (d *Document) Path() string {
	return d.path
}

// Reload re-reads the backing file. Invalid JSON leaves the current body in
// place. Static documents are a no-op.
func (d *Document) Reload() error {
	if d.path == "" {
		return nil
	}
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("read document %s: %w", d.path, err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("document %s is not valid JSON", d.path)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return fmt.Errorf("compact document %s: %w", d.path, err)
	}
	body := compact.Bytes()
	d.body.Store(&body)
	return nil
}
