// Package shared holds code used by several packages that belongs to none of them.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//	- an in-memory slog handler for asserting on log output
//	- synthetic flow series and POI grids
//	- writers that lay those arrays out on disk the way the loader expects
//
// Example usage:
//
//	func TestLoad(t *testing.T) {
//	    root := t.TempDir()
//	    testutil.WriteDataset(t, root, "BikeNYC",
//	        testutil.RampSeries(200, 2, 21, 12), testutil.POIGrid(3, 21, 12))
//	    // load from root
//	}
//
// Nothing in this package may import domain packages other than internal/grid.
package shared
