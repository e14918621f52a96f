package container

import (
	"strings"

	"github.com/distribution/reference"
	"github.com/sirupsen/logrus"

	dockerContainer "github.com/docker/docker/api/types/container"

	"github.com/nrhtr/dockerstats/pkg/types"
)

// metadataFromInspect builds the container metadata snapshot from an inspect
// response, stripping the daemon's leading '/' from the name and normalizing
// the image reference to its familiar form.
//
// Parameters:
//   - details: Raw inspect response from the Docker API.
//
// Returns:
//   - types.ContainerMetadata: Name and image of the container.
//   - error: Non-nil if the response is missing required sections.
func metadataFromInspect(
	details dockerContainer.InspectResponse,
) (types.ContainerMetadata, error) {
	if details.ContainerJSONBase == nil || details.Config == nil {
		return types.ContainerMetadata{}, errMissingInspectData
	}

	return types.ContainerMetadata{
		Name:  strings.TrimPrefix(details.Name, "/"),
		Image: familiarImageName(details.Config.Image),
	}, nil
}

// familiarImageName normalizes an image reference to its familiar display
// form ("docker.io/library/nginx:latest" becomes "nginx:latest"). A
// reference that does not parse is kept as-is.
func familiarImageName(image string) string {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"image": image,
			"error": err,
		}).Debug("Keeping unparseable image reference as-is")

		return image
	}

	return reference.FamiliarString(named)
}
