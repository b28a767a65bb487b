// Package registrar drives the commit-reveal registration protocol of an
// ENS-style registrar controller.
//
// A Session wraps one controller address and a ledger-contract gateway
// (interfaces.Gateway). Read operations return typed values decoded from the
// gateway's result map; write operations return unsent transaction
// descriptors which the caller signs and broadcasts.
//
// # Protocol
//
// Registering a name takes two transactions:
//
//	Uncommitted --commit(commitment)--> Committed --register(name, owner, duration, secret)--> Registered
//
// The commitment hides name, owner and secret until the reveal, so the reveal
// cannot be front-run. The controller only accepts the reveal once the
// commitment is at least minCommitmentAge old and at most maxCommitmentAge
// old, and only if the revealed values hash to the committed value.
// Registered names can be renewed any number of times.
//
// Session does not track this state; each call is independent. Tracker is an
// optional wrapper that records the phase, owner and secret of each name in an
// interfaces.CommitmentStore and refuses reveals that cannot succeed yet.
//
// # Errors
//
// Every operation returns exactly one of:
//
//   - *CallError: the gateway call failed (transport, revert, rejection)
//   - *DecodeError: the result did not have the expected shape
//   - *AmountParseError: the price string was invalid; nothing was called
//   - *ConstructionError: the gateway could not build the call
//
// Errors are never retried. Writes are not idempotent on the ledger.
//
// # Usage Example
//
//	gw, err := gateway.NewEthGateway(ethClient, logger)
//	session := registrar.NewSession(gw, controllerAddress)
//
//	secret, _ := registrar.NewSecret()
//	commitment, err := session.CalculateCommitmentHash(ctx, "example", owner, secret)
//	commitTx, err := session.SubmitCommitment(ctx, sender, commitment)
//
//	// after the commit transaction is mined and minCommitmentAge has passed
//	registerTx, err := session.RegisterName(ctx, sender, "example", owner, 365*24*3600, secret, "0.01")
package registrar
