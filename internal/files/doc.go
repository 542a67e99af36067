// Package files provides file system operations and discovery utilities.
//
// Discovery locates dataset directories. FindDirContaining searches a tree
// depth-first for the first directory holding all requested file names,
// which is how the loader finds flow_data.npy and poi_data.npy beneath a
// user supplied root.
//
// Manager writes files atomically through a temp file and rename, used by the
// downloader and the report writers.
//
// Example usage:
//
//	discovery := files.NewDiscovery("", logger)
//	dir, err := discovery.FindDirContaining("/data", "flow_data.npy", "poi_data.npy")
//	if apperrors.IsType(err, apperrors.ErrTypeDataNotFound) {
//	    // nothing to load
//	}
package files
