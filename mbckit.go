// Package mbckit harvests image records from dLibra digital libraries and
// publishes them to Wikimedia Commons.
package mbckit

const (
	// AppName is used for cache and data directories.
	AppName = "mbckit"
	// Version of the toolkit.
	Version = "0.3.1"
	// DefaultUserAgent identifies the harvester to dLibra and Commons.
	DefaultUserAgent = "mbc-harvest (+https://github.com/wikimedia-pl/mbc-importer)"
)
