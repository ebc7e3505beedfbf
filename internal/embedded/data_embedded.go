//go:build embedded

package embedded

import _ "embed"

// Bundle archive compiled into the installer.
// To build a single-file installer:
//   1. Zip Scripts/, reaper_www_root/ and UserPlugins/ into internal/embedded/release/bundle.zip
//   2. Run: go build -tags embedded

//go:embed release/bundle.zip
var embeddedZip []byte

func getZipData() []byte {
	return embeddedZip
}
