// Package httpclient issues the HTTP GET requests made by virtual users.
//
// [NewClient] creates an HTTP client tuned for load generation with
// connection reuse and an overall per-request timeout:
//
//	client := httpclient.NewClient(30 * time.Second)
//
// [Requester] binds a client to a parsed [target.Descriptor] and satisfies
// the runner's requester contract. Each call sends one GET, drains the
// response body and reports only the status code or the transport error:
//
//	req, err := httpclient.NewRequester(client, desc,
//		httpclient.WithTracer(provider.Tracer(), provider.ShouldPropagate()))
//	code, err := req.Do(ctx)
//
// Non-2xx responses are not errors at this layer; the runner classifies
// them according to its status policy.
package httpclient
