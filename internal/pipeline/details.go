package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/media"
)

// DetailsRequest is a snapshot of what the details loader needs.
type DetailsRequest struct {
	ID         string
	DetailsURL string
	Width      int
	Height     int
}

// ResolveDetails builds the metadata for an item. The basics come from the
// item itself; a JSON document at DetailsURL, when set, is merged on top.
func (p *Pipeline) ResolveDetails(ctx context.Context, req DetailsRequest) (*asset.Details, error) {
	d := &asset.Details{
		Title:    path.Base(req.ID),
		MimeType: media.MimeType(req.ID),
		Extra:    map[string]string{},
	}
	if req.Width > 0 && req.Height > 0 {
		d.Extra["dimensions"] = strconv.Itoa(req.Width) + "x" + strconv.Itoa(req.Height)
	}

	if req.DetailsURL == "" || p.fetcher == nil {
		return d, nil
	}

	data, err := p.fetcher.Fetch(ctx, req.DetailsURL)
	if err != nil {
		return nil, err
	}
	var remote asset.Details
	if err := json.Unmarshal(data, &remote); err != nil {
		return nil, &asset.DecodeError{Source: req.DetailsURL, Err: fmt.Errorf("details: %w", err)}
	}

	if remote.Title != "" {
		d.Title = remote.Title
	}
	if remote.Size > 0 {
		d.Size = remote.Size
	}
	if remote.MimeType != "" {
		d.MimeType = remote.MimeType
	}
	for k, v := range remote.Extra {
		d.Extra[k] = v
	}
	return d, nil
}
