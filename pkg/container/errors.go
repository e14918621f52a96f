package container

import "errors"

// errMissingInspectData indicates the runtime returned an inspect response
// without the base or config sections needed to build container metadata.
var errMissingInspectData = errors.New("inspect response is missing container data")
