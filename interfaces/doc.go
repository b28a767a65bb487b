// Package interfaces defines the types shared by the registrar packages,
// separating interface definitions from implementations.
//
// # Contract Access
//
// Gateway: Executes registrar controller methods by name. Reads return a
// ResultMap of decoded outputs; writes return an unsigned
// TransactionDescriptor that the caller signs and broadcasts.
//
// CallOptions: Per-call transaction parameters (sender, contract address,
// value, gas). A fresh value is built for every call.
//
// # Commit-Reveal Values
//
// Secret and CommitmentHash are 32-byte words, convertible to and from
// hex strings and eight big-endian 32-bit words.
//
// # Storage Interfaces
//
// CommitmentStore: Persists CommitmentRecord values between the commit and
// the reveal, so the secret survives process restarts. Locations are given
// as URIs:
//
//	file:///var/lib/registrar
//	vault://vault.example.com:8200/secret/registrar
//	s3://bucket/prefix?region=eu-west-1
package interfaces
