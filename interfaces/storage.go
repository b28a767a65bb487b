package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Phase is the locally tracked position of a name in the commit-reveal protocol.
type Phase int

const (
	// PhaseUncommitted means no commitment is known for the name.
	PhaseUncommitted Phase = iota
	// PhaseCommitted means a commit transaction was built for the name.
	PhaseCommitted
	// PhaseRegistered means a register transaction was built for the name.
	PhaseRegistered
)

// String returns phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUncommitted:
		return "uncommitted"
	case PhaseCommitted:
		return "committed"
	case PhaseRegistered:
		return "registered"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "uncommitted":
		*p = PhaseUncommitted
	case "committed":
		*p = PhaseCommitted
	case "registered":
		*p = PhaseRegistered
	default:
		return fmt.Errorf("unknown phase %q", string(text))
	}
	return nil
}

// CommitmentRecord is the locally persisted protocol state for one name.
// It holds the secret, so stores must be treated as sensitive.
type CommitmentRecord struct {
	Name         string         `json:"name"`
	Owner        common.Address `json:"owner"`
	Secret       Secret         `json:"secret"`
	Commitment   CommitmentHash `json:"commitment"`
	Phase        Phase          `json:"phase"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	RegisteredAt time.Time      `json:"registered_at"`
}

// RecordKey returns the storage key of a name: the hex keccak256 of its label.
func RecordKey(name string) string {
	return strings.TrimPrefix(crypto.Keccak256Hash([]byte(name)).Hex(), "0x")
}

var (
	// ErrRecordNotFound is returned when no commitment record exists for a name.
	ErrRecordNotFound = errors.New("commitment record not found")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// CommitmentStore persists commitment records keyed by name.
type CommitmentStore interface {
	// Load returns the record for name or ErrRecordNotFound.
	Load(ctx context.Context, name string) (*CommitmentRecord, error)

	// Save creates or replaces the record for record.Name.
	Save(ctx context.Context, record *CommitmentRecord) error

	// Delete removes the record for name. Deleting a missing record is not an error.
	Delete(ctx context.Context, name string) error

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// StorageBackendLocation represents URI for storage backend.
type StorageBackendLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname
	Path   string     // Resource path
	Query  url.Values // Query parameters
}

// NewStorageBackendLocation creates a new storage location from a URI string with validation.
func NewStorageBackendLocation(uri string) (StorageBackendLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StorageBackendLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch parsed.Scheme {
	case "file", "vault", "s3":
	default:
		return StorageBackendLocation{}, fmt.Errorf("%w: unsupported storage scheme: %s", ErrInvalidLocationURI, parsed.Scheme)
	}

	return StorageBackendLocation{
		Raw:    uri,
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
	}, nil
}

// String returns the original URI string.
func (loc StorageBackendLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc StorageBackendLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc StorageBackendLocation) GetParamBool(name string) bool {
	value := loc.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}
