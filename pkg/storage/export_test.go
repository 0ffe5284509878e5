package storage

import (
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// NewAtURL targets an unauthenticated endpoint such as an httptest server.
func NewAtURL(serviceURL, container string, logger *slog.Logger) (System, error) {
	client, err := azblob.NewClientWithNoCredential(serviceURL, nil)
	if err != nil {
		return nil, err
	}
	return newContainer(client, container, logger), nil
}
