// Package scratch manages the short-lived files a relay invocation writes to
// local disk.
//
// Each invocation gets its own Workspace under a shared root, named after the
// invocation id, so two invocations relaying objects with the same name never
// touch each other's files:
//
//	ws, err := scratch.New(os.TempDir(), invocationID)
//	if err != nil {
//	    return err
//	}
//	defer ws.Close()
//
//	path, n, err := ws.Stage(ctx, "report.csv", body)
package scratch
