package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	cloudinaryBaseURL = "https://api.cloudinary.com"
	// Admin API limit for delete_resources.
	cloudinaryMaxIDsPerRequest = 100
)

// CloudinaryStore deletes uploaded images through the Cloudinary Admin API.
// References are public ids.
type CloudinaryStore struct {
	cloudName string
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
	log       *zap.Logger
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string, log *zap.Logger) *CloudinaryStore {
	return &CloudinaryStore{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   cloudinaryBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       log,
	}
}

type cloudinaryDeleteResponse struct {
	Deleted map[string]string `json:"deleted"`
	Partial bool              `json:"partial"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *CloudinaryStore) DeleteMany(ctx context.Context, refs []string) DeleteResult {
	var res DeleteResult
	for _, batch := range chunk(unique(refs), cloudinaryMaxIDsPerRequest) {
		statuses, err := c.deleteResources(ctx, batch)
		if err != nil {
			c.log.Warn("cloudinary delete resources failed",
				zap.String("cloud", c.cloudName), zap.Int("ids", len(batch)), zap.Error(err))
			res.Failed = append(res.Failed, batch...)
			res.Err = err
			continue
		}
		for _, id := range batch {
			switch statuses[id] {
			// not_found means the object is already gone.
			case "deleted", "not_found":
				res.Deleted++
			default:
				res.Failed = append(res.Failed, id)
				res.Err = fmt.Errorf("delete %s: status %q", id, statuses[id])
			}
		}
	}
	return res
}

func (c *CloudinaryStore) deleteResources(ctx context.Context, ids []string) (map[string]string, error) {
	q := url.Values{}
	for _, id := range ids {
		q.Add("public_ids[]", id)
	}
	endpoint := fmt.Sprintf("%s/v1_1/%s/resources/image/upload?%s", c.baseURL, url.PathEscape(c.cloudName), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body cloudinaryDeleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode cloudinary response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if body.Error != nil {
			msg = body.Error.Message
		}
		return nil, fmt.Errorf("cloudinary: %s", msg)
	}
	return body.Deleted, nil
}
