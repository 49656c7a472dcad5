package backup

import (
	"encoding/json"
	"fmt"
	"time"
)

// CurrentVersion is the schema version this build writes and the newest it
// can read. Version 1 containers (pre custom-field records) still parse; the
// fields they lack are simply absent.
const CurrentVersion = 2

// Metadata describes the producer of a backup container.
type Metadata struct {
	AppVersion   string `json:"appVersion"`
	BuildNumber  string `json:"buildNumber"`
	CreationDate string `json:"creationDate"` // ISO-8601
	Platform     string `json:"platform"`
	Encrypted    bool   `json:"encrypted"`
}

// Container is the versioned top-level backup envelope. Each entity family
// section is optional: a missing section means nothing to restore for that
// family, not an error.
type Container struct {
	Version    int               `json:"version"`
	Metadata   Metadata          `json:"metadata"`
	Items      []ItemRecord      `json:"items,omitempty"`
	Categories []CategoryRecord  `json:"categories,omitempty"`
	Clients    []ContactRecord   `json:"clients,omitempty"`
	Suppliers  []ContactRecord   `json:"suppliers,omitempty"`
	Invoices   []DocumentRecord  `json:"invoices,omitempty"`
	Estimates  []DocumentRecord  `json:"estimates,omitempty"`
	Settings   map[string]string `json:"settings,omitempty"`
}

// ProducerInfo identifies the app build writing a container.
type ProducerInfo struct {
	AppVersion  string
	BuildNumber string
	Platform    string
}

// NewContainer builds an empty container stamped with the current version
// and producer metadata. Sections are filled in by the caller.
func NewContainer(producer ProducerInfo, encrypted bool) *Container {
	return &Container{
		Version: CurrentVersion,
		Metadata: Metadata{
			AppVersion:   producer.AppVersion,
			BuildNumber:  producer.BuildNumber,
			CreationDate: time.Now().UTC().Format(time.RFC3339),
			Platform:     producer.Platform,
			Encrypted:    encrypted,
		},
	}
}

// Encode renders the container as pretty-printed UTF-8 JSON.
func (c *Container) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}
	return data, nil
}

// containerWire mirrors Container with pointer fields so Parse can tell a
// missing version/metadata apart from zero values.
type containerWire struct {
	Version    *int              `json:"version"`
	Metadata   *Metadata         `json:"metadata"`
	Items      []ItemRecord      `json:"items"`
	Categories []CategoryRecord  `json:"categories"`
	Clients    []ContactRecord   `json:"clients"`
	Suppliers  []ContactRecord   `json:"suppliers"`
	Invoices   []DocumentRecord  `json:"invoices"`
	Estimates  []DocumentRecord  `json:"estimates"`
	Settings   map[string]string `json:"settings"`
}

// Parse validates and decodes plaintext container bytes. Fails with
// ErrCorruptedBackup for non-JSON input, ErrInvalidData for JSON that is not
// a well-formed container, and ErrIncompatibleVersion for containers written
// by a newer app. A missing metadata section is tolerated and synthesized.
func Parse(data []byte) (*Container, error) {
	var wire containerWire
	if err := json.Unmarshal(data, &wire); err != nil {
		if json.Valid(data) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptedBackup, err)
	}
	if wire.Version == nil {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidData)
	}
	if *wire.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: container version %d, supported up to %d",
			ErrIncompatibleVersion, *wire.Version, CurrentVersion)
	}

	c := &Container{
		Version:    *wire.Version,
		Items:      wire.Items,
		Categories: wire.Categories,
		Clients:    wire.Clients,
		Suppliers:  wire.Suppliers,
		Invoices:   wire.Invoices,
		Estimates:  wire.Estimates,
		Settings:   wire.Settings,
	}
	if wire.Metadata != nil {
		c.Metadata = *wire.Metadata
	} else {
		// Legacy exports shipped without metadata.
		c.Metadata = Metadata{
			AppVersion: "unknown",
			Platform:   "unknown",
		}
	}
	return c, nil
}

// LooksEncrypted reports whether raw backup bytes need a password before they
// can be parsed. Detection is by elimination: anything that is not valid JSON
// is assumed to be an encrypted blob.
func LooksEncrypted(data []byte) bool {
	return !json.Valid(data)
}
