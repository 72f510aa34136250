// Package graph uploads files into SharePoint document libraries through the
// Microsoft Graph simple-upload endpoint.
//
//	u := graph.NewUploader(graph.WithTimeout(cfg.UploadTimeout))
//	resp, err := u.Put(ctx, graph.Request{
//	    URL:   graph.ContentURL(graph.DefaultBaseURL, siteID, driveID, "report.csv.zip"),
//	    Token: token,
//	    Body:  f,
//	    Size:  size,
//	})
//	if err != nil {
//	    // no response: ErrTransport, possibly ErrTimeout
//	}
//	if !resp.Succeeded() {
//	    // rejected: resp.StatusCode, resp.Summary()
//	}
//
// Upload sessions for large files are not implemented; simple upload accepts
// content up to 250 MB.
package graph
