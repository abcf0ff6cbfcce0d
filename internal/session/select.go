package session

import (
	"fmt"

	"github.com/appsnap/cli/pkg/appbuilder"
)

// SelectVersion returns versions[index]. The server lists newest first, so
// index 0 is the default choice.
func SelectVersion(versions []appbuilder.Version, index int) (appbuilder.Version, error) {
	if index < 0 || index >= len(versions) {
		return appbuilder.Version{}, fmt.Errorf("%w: index %d of %d", ErrNoSuchVersion, index, len(versions))
	}
	return versions[index], nil
}

// SelectVersionByID returns the version with the given id.
func SelectVersionByID(versions []appbuilder.Version, id string) (appbuilder.Version, error) {
	for _, v := range versions {
		if v.VersionID == id {
			return v, nil
		}
	}
	return appbuilder.Version{}, fmt.Errorf("%w: %q", ErrNoSuchVersion, id)
}
