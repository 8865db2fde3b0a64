package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
)

// StoreAzure is a FileStorage implementation to store objects via an Azure blob store.
type StoreAzure struct {
	client        *azblob.Client // A reference to the initialised Azure blob store client
	containerName string         // Name of the container objects will be stored in
}

var contentType = contentTypeJSON

// NewAzureStore instantiates a new StoreAzure FileStore instance.
// The storage account name is specified by endpoint and must be provided in the
// format: "https://<storage-account-name>.blob.core.windows.net/".
// storageAccount is optional, and if empty the name will be extracted from the endpoint.
// When accessKey is empty the default azure credential chain is used.
func NewAzureStore(endpoint, containerName, storageAccount, accessKey string) (FileStorage, error) {
	var client *azblob.Client
	ctx := context.Background()
	if accessKey != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, err
		}
		// Azurite local storage emulator will be in format http://<ip>:<port>/<storage-account-name>/
		// therefore storageAccount must be set manually for Azurite support
		storeName := storageAccount
		if storeName == "" {
			storeName = strings.Split(u.Hostname(), ".")[0]
		}
		cred, err := azblob.NewSharedKeyCredential(storeName, accessKey)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain a credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain blobstore: %w", err)
		}
	} else {
		// requires AZURE_CLIENT_SECRET, AZURE_TENANT_ID, AZURE_CLIENT_ID
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain a credential: %w", err)
		}
		client, err = azblob.NewClient(endpoint, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain blobstore: %w", err)
		}
	}

	// create container if required
	_, err := client.CreateContainer(ctx, containerName, nil)
	if err == nil {
		st.Logger.Info().Str("container", containerName).Msg("created container")
	} else if !bloberror.HasCode(err, bloberror.ResourceAlreadyExists, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("unhandled error of type %T: %w", err, err)
	}
	return &StoreAzure{client, containerName}, nil
}

func (s *StoreAzure) Put(ctx context.Context, label, id string, data []byte) error {
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "put", err)
	}()
	prom.DataUploads.Inc()
	_, err = s.client.UploadBuffer(ctx, s.containerName, objectPath(label, id), data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err == nil {
		prom.DataUploaded.Add(float64(len(data)))
	}
	return err
}

func (s *StoreAzure) Fetch(ctx context.Context, label, id string) ([]byte, error) {
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "fetch", err)
	}()
	prom.DataDownloads.Inc()
	resp, err := s.client.DownloadStream(ctx, s.containerName, objectPath(label, id), nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w", &NotFoundError{})
		}
		return nil, fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", err)})
	}
	defer resp.Body.Close()
	buf := bytes.Buffer{}
	_, err = io.Copy(&buf, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w", &ReadError{msg: fmt.Sprintf("%v", err)})
	}
	prom.DataDownloaded.Add(float64(buf.Len()))
	return buf.Bytes(), nil
}

func (s *StoreAzure) Exists(ctx context.Context, label, id string) (bool, error) {
	prom.DataExists.Inc()
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "exists", err)
	}()
	blobClient := s.client.ServiceClient().NewContainerClient(s.containerName).NewBlobClient(objectPath(label, id))
	_, err = blobClient.GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		err = nil
		return false, nil
	}
	return false, fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", err)})
}

func (s *StoreAzure) List(ctx context.Context, label string) ([]string, error) {
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "list", err)
	}()
	prefix := label + "/"
	keys := []string{}
	pager := s.client.NewListBlobsFlatPager(s.containerName, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", err)})
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	return idsUnder(label, keys), nil
}

func (s *StoreAzure) Delete(ctx context.Context, label, id string) (bool, error) {
	prom.DataDeletes.Inc()
	var err error
	startTime := time.Now().UnixNano()
	defer func() {
		reportStorageOpMetric(startTime, "delete", err)
	}()
	_, err = s.client.DeleteBlob(ctx, s.containerName, objectPath(label, id), nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return false, fmt.Errorf("%w", &NotFoundError{})
		}
		return false, fmt.Errorf("%w", &AccessError{msg: fmt.Sprintf("%v", err)})
	}
	return true, nil
}
