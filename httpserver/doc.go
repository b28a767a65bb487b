/*
Package httpserver serves a registrar controller session over HTTP.

Routes are registered by Handler.RegisterRoutes and documented in package
api. Write routes answer with unsigned transaction descriptors that the
caller signs and broadcasts itself.

Errors are reported as plain text bodies:

  - 400 for malformed requests, unparsable prices and calls the gateway
    refuses to encode
  - 413 for oversized bodies
  - 502 when the node call fails or its result cannot be decoded
  - 504 when the node does not answer before the request deadline

Server adds liveness (/livez), readiness (/readyz) and drain (/drain,
/undrain) endpoints, optional pprof under /debug and a Prometheus listener
on the configured metrics address.
*/
package httpserver
