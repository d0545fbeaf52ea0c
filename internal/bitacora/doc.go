// Package bitacora is the client side of the remote movement-log service:
// GET <endpoint>?fecha=YYMMDD returning a JSON array of movements.
//
// The package knows nothing about fetch state or presentation. It returns
// *RemoteStatusError for non-200 answers and *TransportError for everything
// that kept a usable body from arriving.
package bitacora
