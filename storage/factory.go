package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/registrar-controller/interfaces"
)

// StorageBackendFactory creates commitment stores from URI strings.
type StorageBackendFactory struct {
	log *slog.Logger
}

// NewStorageBackendFactory creates a new factory instance that can create commitment stores.
func NewStorageBackendFactory(logger *slog.Logger) *StorageBackendFactory {
	return &StorageBackendFactory{
		log: logger,
	}
}

// StoreFor creates a commitment store from a location URI.
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - vault:// - HashiCorp Vault KV v2
//   - s3:// - Amazon S3 or compatible object storage
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *StorageBackendFactory) StoreFor(location interfaces.StorageBackendLocation) (interfaces.CommitmentStore, error) {
	u, err := url.Parse(location.Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "vault":
		return sf.createVaultBackend(u)
	case "file":
		return sf.createFileBackend(u)
	case "s3":
		return sf.createS3Backend(location)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme: %s", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// createVaultBackend creates a Vault commitment store.
// URI format: vault://host:port/mount/path?insecure=true&token=...
// The first path segment is the KV v2 mount, the rest is the data path.
// Without a token parameter the VAULT_TOKEN environment variable is used.
func (sf *StorageBackendFactory) createVaultBackend(u *url.URL) (interfaces.CommitmentStore, error) {
	sf.log.Debug("Creating Vault backend", slog.String("host", u.Host))

	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing Vault host", interfaces.ErrInvalidLocationURI)
	}

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	mountPath := parts[0]
	if mountPath == "" {
		return nil, fmt.Errorf("%w: missing Vault mount path", interfaces.ErrInvalidLocationURI)
	}
	var dataPath string
	if len(parts) == 2 {
		dataPath = parts[1]
	}

	query := u.Query()
	scheme := "https"
	if v := query.Get("insecure"); v == "true" || v == "1" {
		scheme = "http"
	}

	return NewVaultBackend(fmt.Sprintf("%s://%s", scheme, u.Host), mountPath, dataPath, query.Get("token"), sf.log)
}

// StoreForAll opens every location and replicates records across them with a
// MultiStore. A single location yields its store unwrapped.
func (sf *StorageBackendFactory) StoreForAll(locations []interfaces.StorageBackendLocation) (interfaces.CommitmentStore, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: no storage location given", interfaces.ErrInvalidLocationURI)
	}

	stores := make([]interfaces.CommitmentStore, 0, len(locations))
	for _, location := range locations {
		store, err := sf.StoreFor(location)
		if err != nil {
			return nil, fmt.Errorf("could not open %s: %w", location, err)
		}
		stores = append(stores, store)
	}

	if len(stores) == 1 {
		return stores[0], nil
	}
	return NewMultiStore(stores, sf.log), nil
}

// createS3Backend creates an S3 or S3-compatible commitment store.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2&endpoint=http://minio:9000&path_style=true
func (sf *StorageBackendFactory) createS3Backend(location interfaces.StorageBackendLocation) (interfaces.CommitmentStore, error) {
	sf.log.Debug("Creating S3 backend", slog.String("bucket", location.Host))

	u, err := url.Parse(location.Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	cfg := S3Config{
		Bucket:    u.Host,
		Prefix:    strings.TrimPrefix(u.Path, "/"),
		Region:    location.GetParam("region"),
		Endpoint:  location.GetParam("endpoint"),
		PathStyle: location.GetParamBool("path_style"),
	}
	if u.User != nil {
		cfg.AccessKey = u.User.Username()
		cfg.SecretKey, _ = u.User.Password()
	} else {
		sf.log.Debug("No credentials in S3 URI, using the default AWS credential chain")
	}

	return NewS3Backend(cfg, sf.log)
}

// createFileBackend creates a file system commitment store.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StorageBackendFactory) createFileBackend(u *url.URL) (interfaces.CommitmentStore, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI: %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	return NewFileBackend(path, sf.log)
}
