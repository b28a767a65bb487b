// Package main (cmd/registrar) is a command line client for an
// ETHRegistrarController.
//
// Reads go straight to the controller. commit and register go through a
// tracker that keeps the owner and secret in the commitment store between
// the two phases, so the reveal cannot be made with a different secret:
//
//	registrar --registrar-contract 0x283A... commit example --sender 0x11.. --owner 0x22..
//	# sign and broadcast the printed transaction, wait for the minimum age
//	registrar --registrar-contract 0x283A... status example
//	registrar --registrar-contract 0x283A... register example --sender 0x11.. --price 0.05
//
// Every write prints an unsigned transaction as JSON.
package main
