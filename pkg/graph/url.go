package graph

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is the Microsoft Graph v1.0 root.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// ContentURL returns the simple-upload address of name in the root folder of
// a document library:
//
//	{base}/sites/{site}/drives/{drive}/root:/{name}:/content
//
// Each segment is path-escaped, so names with spaces or '#' stay a single
// path element.
func ContentURL(baseURL, siteID, driveID, name string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("/sites/")
	b.WriteString(escapeSegment(siteID))
	b.WriteString("/drives/")
	b.WriteString(escapeSegment(driveID))
	b.WriteString("/root:/")
	b.WriteString(escapeSegment(name))
	b.WriteString(":/content")
	return b.String()
}

// escapeSegment keeps commas literal: composite site ids are
// "{hostname},{site-collection-id},{web-id}" and commas are valid in a segment.
func escapeSegment(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), "%2C", ",")
}
