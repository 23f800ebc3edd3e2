package pkg

import "fmt"

var (
	// set by the linker at build time
	WidecolVersion         = "devel"
	GitRevision            = "devel"
	WidecolVersionRevision = fmt.Sprintf("%s-%s", WidecolVersion, GitRevision)
)
