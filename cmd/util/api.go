package util

import (
	"fmt"

	"github.com/bacalhau-project/cryri/pkg/config/types"
	"github.com/bacalhau-project/cryri/pkg/publicapi/client"
	"github.com/bacalhau-project/cryri/pkg/version"
)

// GetAPIClient builds the control plane client described by the api settings.
func GetAPIClient(settings types.Settings) (*client.APIClient, error) {
	c, err := client.NewAPIClient(settings.API.Endpoint,
		client.WithSettings(settings.API),
		client.WithHeader("User-Agent", "cryri/"+version.Get().GitVersion),
	)
	if err != nil {
		return nil, fmt.Errorf("creating api client: %w", err)
	}
	return c, nil
}
