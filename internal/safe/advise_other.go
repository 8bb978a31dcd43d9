//go:build !linux

package safe

import "os"

func adviseSequential(_ *os.File, _ int64) {}
