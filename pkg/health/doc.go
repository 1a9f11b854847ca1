/*
Package health serves the store daemon's liveness and readiness
endpoints.

  - /healthz: process liveness, 200 while the HTTP server runs
  - /readyz: 503 until every store bucket has finished recovery and
    registered, 200 afterwards

Readiness gates traffic the same way bucket registration gates requests
inside the process: a broker node fronting this store should not be sent
sessions until /readyz flips.
*/
package health
