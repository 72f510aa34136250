// Package relay moves one storage object into a SharePoint document library.
//
// A Pipeline runs a fixed sequence for every Event: acquire a Graph token,
// stage the bytes into a per-invocation scratch directory, wrap them in a
// single-entry deflate zip, PUT the archive to
// {graph}/sites/{site}/drives/{library}/root:/{name}.zip:/content and remove
// the scratch files. Handle never returns an error. It returns a Result whose
// Outcome and Retryable fields tell the trigger host what happened and whether
// a redelivery could help:
//
//	succeeded  Graph answered 200 or 201
//	rejected   Graph answered anything else (retryable for 408, 425, 429, 5xx)
//	failed     staging, compression or transport error
//	aborted    no token or an unusable event name; nothing touched disk
//	fatal      configuration missing; see FatalResult
//
// Configuration is loaded per invocation with LoadConfig. The invocation id is
// carried on the context; register InvocationIDExtractor with the logger to
// tag every line written during an invocation.
package relay
