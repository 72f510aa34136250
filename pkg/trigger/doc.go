// Package trigger exposes relay.Service over HTTP.
//
// The main route speaks the Azure Functions custom handler protocol: the host
// POSTs to /{function} with the blob content in Data[binding] and the blob
// path in Metadata, and reads Outputs, Logs and ReturnValue from the answer.
// A second route, POST /events, accepts S3 event notifications and streams
// the referenced objects from a blob.Source.
//
// Results the host should redeliver (retryable outcomes and configuration
// errors) answer 500; everything else answers 200 with the typed result in
// the body.
package trigger
