// Package testing provides a test harness for vtree component trees.
//
// # Quick Start
//
// Create a tester, render a tree, and make assertions:
//
//	func TestCounter(t *testing.T) {
//	    tester := vtreetest.NewTesterWithT(t)
//	    tester.Render(core.Create(Counter, nil))
//
//	    // Find descriptors
//	    label := tester.Find(vtreetest.ByText("0")).First()
//
//	    // Fire handlers stored on host nodes
//	    tester.Fire(vtreetest.ByTag("button"), "onclick")
//
//	    // Assert markup and host work
//	    if tester.Markup() != "<button>1</button>" {
//	        t.Errorf("unexpected markup %q", tester.Markup())
//	    }
//	}
//
// # Snapshot Testing
//
// Capture and compare host tree snapshots:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/counter.snapshot.yaml")
//
// Update snapshots with:
//
//	VTREE_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import vtreetest "github.com/go-drift/vtree/pkg/testing"
package testing
