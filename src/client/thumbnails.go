package client

import (
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/visualmix/resolume/config"
)

// Thumbnails fetches clip preview images over the companion plain HTTP
// endpoint on the same host/port as the websocket API.
type Thumbnails struct {
	base    string
	http    *fasthttp.Client
	timeout time.Duration
}

// NewThumbnails creates a thumbnail fetcher for cfg's endpoint.
func NewThumbnails(cfg *config.Config) *Thumbnails {
	return &Thumbnails{
		base:    cfg.BaseHTTP(),
		http:    &fasthttp.Client{},
		timeout: 5 * time.Second,
	}
}

// Clip returns the thumbnail image for a clip. lastUpdate comes from
// the clip's thumbnail state in the composition snapshot; "0" or empty
// means the clip has no rendered preview yet and the shared dummy
// image is returned instead.
func (t *Thumbnails) Clip(clipID int, lastUpdate string) ([]byte, error) {
	var url string
	if lastUpdate == "" || lastUpdate == "0" {
		url = t.base + "/composition/thumbnail/dummy"
	} else {
		url = fmt.Sprintf("%s/composition/clips/by-id/%d/thumbnail/%s", t.base, clipID, lastUpdate)
	}

	status, body, err := t.http.GetTimeout(nil, url, t.timeout)
	if err != nil {
		return nil, fmt.Errorf("fetch thumbnail: %w", err)
	}
	if status != fasthttp.StatusOK {
		return nil, fmt.Errorf("fetch thumbnail: unexpected status %d", status)
	}
	return body, nil
}
