// Package storage persists commit-reveal records with pluggable backends.
//
// A record holds the name, owner, secret and commitment of a pending
// registration together with its phase. Losing the secret between commit
// and reveal makes the commitment unusable, so the tracker saves records
// before reporting a commit as done.
//
// # Backends
//
//   - FileBackend: one JSON file per name, for local use
//   - VaultBackend: HashiCorp Vault KV v2
//   - S3Backend: Amazon S3 or a compatible service
//   - MultiStore: replicates records across several backends
//
// # Storage URI Format
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
//	file:///var/lib/registrar
//	vault://vault.example.com:8200/secret/registrar?token=...
//	s3://AK:SK@bucket/prefix?region=us-west-2&endpoint=http://minio:9000&path_style=true
//
// StorageBackendFactory.StoreFor builds a single backend from a location;
// StoreForAll combines several locations into a MultiStore.
//
// # Record Keys
//
// Names are stored under interfaces.RecordKey(name), the hex keccak256 of
// the name, so arbitrary labels map to safe file and object names.
package storage
