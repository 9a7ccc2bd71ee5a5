package main

import (
	"fmt"

	"github.com/Alia5/winbridge/internal/version"
)

var descriptionTemplate = `
Host bridge for the Windows companion control protocol
  Version: %s (%s)
           %s
`

func Description() string {
	return fmt.Sprintf(descriptionTemplate, version.Version, version.Commit, version.Date)
}
