package ekubo

// positions.go: refs de posiciones y documentos de metadatos.
//
// FetchMetadataDocuments lanza una goroutine por documento. El itemLimiter en
// doWithRetry marca el ritmo y cada descarga tiene su propio timeout, así que
// una URL colgada solo pierde su propio item.

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/alejandrodnm/titan/internal/domain"
)

const positionsPath = "/positions/"

// FetchPositionRefs devuelve las refs de las posiciones minteadas por owner.
// Sin data o con data vacía devuelve un slice vacío.
func (c *Client) FetchPositionRefs(ctx context.Context, owner string) ([]domain.PositionRef, error) {
	if owner == "" {
		return nil, fmt.Errorf("ekubo.FetchPositionRefs: empty owner: %w", domain.ErrInvalidArgument)
	}

	var resp positionsResponse
	u := c.baseURL + positionsPath + url.PathEscape(owner)
	if err := c.get(ctx, c.indexLimiter, u, &resp); err != nil {
		return nil, fmt.Errorf("ekubo.FetchPositionRefs: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	refs := mapPositionRefs(resp.Data)
	slog.Debug("position refs fetched", "owner", owner, "count", len(refs))
	return refs, nil
}

// FetchMetadataDocuments descarga todos los documentos en paralelo y devuelve
// los que llegaron bien, en el orden de refs. Los fallos se loguean y se
// excluyen.
func (c *Client) FetchMetadataDocuments(ctx context.Context, refs []domain.PositionRef) []domain.PositionMetadata {
	if len(refs) == 0 {
		return []domain.PositionMetadata{}
	}

	type docResult struct {
		meta domain.PositionMetadata
		err  error
		idx  int
	}

	resultCh := make(chan docResult, len(refs))
	var wg sync.WaitGroup

	for i, ref := range refs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			meta, err := c.FetchPosition(ctx, ref)
			resultCh <- docResult{meta: meta, err: err, idx: i}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	slots := make([]*domain.PositionMetadata, len(refs))
	failed := 0
	for r := range resultCh {
		if r.err != nil {
			failed++
			slog.Warn("metadata fetch failed, skipping",
				"position_id", refs[r.idx].ID,
				"url", refs[r.idx].MetadataURL,
				"err", r.err,
			)
			continue
		}
		slots[r.idx] = &r.meta
	}

	docs := make([]domain.PositionMetadata, 0, len(refs)-failed)
	for _, m := range slots {
		if m != nil {
			docs = append(docs, *m)
		}
	}

	slog.Debug("metadata documents fetched", "refs", len(refs), "ok", len(docs), "failed", failed)
	return docs
}

// FetchPosition descarga un único documento. Si la ref no trae URL se usa
// {base}/{id}, que es donde la API sirve el documento de cada NFT.
func (c *Client) FetchPosition(ctx context.Context, ref domain.PositionRef) (domain.PositionMetadata, error) {
	u := ref.MetadataURL
	if u == "" {
		if ref.ID == "" {
			return domain.PositionMetadata{}, fmt.Errorf("ekubo.FetchPosition: ref without id or url: %w", domain.ErrInvalidArgument)
		}
		u = c.baseURL + "/" + url.PathEscape(ref.ID)
		ref.MetadataURL = u
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	var doc metadataDTO
	if err := c.get(fetchCtx, c.itemLimiter, u, &doc); err != nil {
		return domain.PositionMetadata{}, fmt.Errorf("ekubo.FetchPosition %s: %w", u, err)
	}
	return mapMetadata(ref, doc), nil
}
