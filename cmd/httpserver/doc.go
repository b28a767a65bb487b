// Package main (cmd/httpserver) runs the registrar JSON API.
//
// The server connects to an Ethereum JSON-RPC endpoint, builds a session for
// the ETHRegistrarController at --registrar-contract and serves it with
// package httpserver. Write endpoints return unsigned transactions; the
// server holds no keys.
//
// Usage:
//
//	registrar-server --rpc-addr http://127.0.0.1:8545 \
//	    --registrar-contract 0x283Af0B28c62C092C9727F1Ee09c02CA627EB7F5 \
//	    --listen-addr 0.0.0.0:8080 --metrics-addr 0.0.0.0:8090
//
// SIGINT or SIGTERM triggers a graceful shutdown.
package main
