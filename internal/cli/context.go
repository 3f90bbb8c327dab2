package cli

import (
	"fmt"
	"os"

	"github.com/recvault/recvault/pkg/recvault"
)

// requireClient opens the recordings root from --root, or exits with error.
func requireClient() *recvault.Client {
	c, err := recvault.Open(rootDir, recvault.Options{})
	if err != nil {
		fmtErr("cannot open recordings root %q: %v", rootDir, err)
		os.Exit(1)
	}
	return c
}

func fmtErr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "recvault: "+format+"\n", args...)
}
