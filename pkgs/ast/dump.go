package ast

import "github.com/davecgh/go-spew/spew"

var dumpConfig = &spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Dump renders n and its full subtree as a deeply-indented debug string,
// the same shape `cmd/velox ast --dump` prints to help diagnose a
// misparsed script.
func Dump(n *Node) string {
	return dumpConfig.Sdump(n)
}
