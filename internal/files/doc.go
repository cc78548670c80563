// Package files discovers production data files on disk for batch runs of
// the processor.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/srv/produksi")
//	inputs, err := discovery.FindProductionFiles("uploads")
//	latest, ok := files.GetLatestFile(inputs)
package files
