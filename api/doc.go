/*
Package api holds the configuration and wire types of the registrar HTTP API.

The API exposes a registrar controller session over JSON:

	GET  /api/names/{name}/price?duration=N   rent price in wei and ether
	GET  /api/names/{name}/valid              controller name validity
	GET  /api/names/{name}/available          availability
	GET  /api/commitment-ages                 min/max commitment age in seconds
	POST /api/commitments                     commitment hash for name, owner and secret
	POST /api/tx/commit                       unsent commit transaction
	POST /api/tx/register                     unsent register transaction
	POST /api/tx/renew                        unsent renew transaction
	POST /api/tx/withdraw                     unsent withdraw transaction

Transactions are returned as interfaces.TransactionDescriptor JSON and are
never signed or broadcast by the server. Amounts are decimal ether strings
on input and wei integer strings on output.
*/
package api
