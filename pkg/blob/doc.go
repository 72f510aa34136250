// Package blob resolves object keys from storage notifications into byte
// streams.
//
// Two sources are provided: LocalSource for a directory on disk and S3Source
// for Amazon S3 or any S3-compatible store (MinIO, Ceph, R2). Errors are
// mapped onto package sentinels so callers can decide whether a failed read
// is worth a redelivery with IsTemporary.
//
//	src, err := blob.FromConfig(ctx, cfg)
//	rc, obj, err := src.Open(ctx, "send-to-sharepoint/report.csv")
//	if err != nil {
//	    if errors.Is(err, blob.ErrObjectNotFound) { ... }
//	}
//	defer rc.Close()
package blob
