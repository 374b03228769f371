package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/princinho/sahoadmin/dto"
	"github.com/princinho/sahoadmin/models"
)

// Categories lists categories in their stored order. The backend answers
// either a bare array or a paginated {"items": [...]} envelope.
func (c *Client) Categories(ctx context.Context, headers http.Header) ([]models.Category, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, PathCategories, headers, nil, &raw); err != nil {
		return nil, err
	}

	items := make([]models.Category, 0)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
		return items, nil
	}

	var page struct {
		Items []models.Category `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if page.Items != nil {
		items = page.Items
	}
	return items, nil
}

func (c *Client) ReorderCategories(ctx context.Context, headers http.Header, positions []dto.CategoryPosition) error {
	return c.do(ctx, http.MethodPost, PathReorderCategories, headers, positions, nil)
}
