package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"stylefinder/internal/embedding"
	"stylefinder/internal/logging"
	"stylefinder/internal/models"
)

// BatchSize is the number of documents written per Upsert call.
const BatchSize = 100

// Metadata keys stored with every product document.
const (
	MetaProductID     = "product_id"
	MetaName          = "name"
	MetaImg           = "img"
	MetaExtractImages = "extract_images"
	MetaMainCategory  = "main_category"
	MetaSubcategory   = "subcategory"
	MetaSeller        = "seller"
	MetaPrice         = "price"
	MetaDiscount      = "discount"
)

// DocumentID is the index key of a product.
func DocumentID(productID int64) string {
	return "product_" + strconv.FormatInt(productID, 10)
}

// DocumentFor builds the searchable document of a product.
func DocumentFor(p models.Product) Document {
	text := strings.Join([]string{
		p.Name, p.Subcategory, string(p.MainCategory), p.Seller,
		"color style fashion clothing",
	}, " ")
	return Document{
		ID:   DocumentID(p.ProductID),
		Text: text,
		Metadata: map[string]any{
			MetaProductID:     p.ProductID,
			MetaName:          p.Name,
			MetaImg:           p.DisplayImageRef,
			MetaExtractImages: p.ExtractedGarmentRef,
			MetaMainCategory:  string(p.MainCategory),
			MetaSubcategory:   p.Subcategory,
			MetaSeller:        p.Seller,
			MetaPrice:         p.Price.InexactFloat64(),
			MetaDiscount:      p.Discount.InexactFloat64(),
		},
	}
}

// Indexer writes catalog products into an Index.
type Indexer struct {
	index     Index
	embedder  embedding.Embedder
	batchSize int
}

// NewIndexer creates an Indexer. embedder is the one the index embeds with;
// it is prepared over the whole corpus before the first write.
func NewIndexer(index Index, embedder embedding.Embedder) *Indexer {
	return &Indexer{index: index, embedder: embedder, batchSize: BatchSize}
}

// Index upserts one document per product and returns how many were written.
func (ix *Indexer) Index(ctx context.Context, products []models.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	docs := make([]Document, len(products))
	for i, p := range products {
		docs[i] = DocumentFor(p)
	}
	if err := ix.prepare(docs); err != nil {
		return 0, err
	}

	written := 0
	for start := 0; start < len(docs); start += ix.batchSize {
		end := min(start+ix.batchSize, len(docs))
		if err := ix.index.Upsert(ctx, docs[start:end]); err != nil {
			return written, fmt.Errorf("failed to index batch %d-%d: %w", start, end, err)
		}
		written = end
		logging.Debug().Int("indexed", written).Int("total", len(docs)).Msg("indexed batch")
	}
	return written, nil
}

// Prepare fits the embedder to the catalog without writing to the index.
// Processes that only query an index built elsewhere call it so query
// vectors share the vocabulary of the stored ones.
func (ix *Indexer) Prepare(products []models.Product) error {
	docs := make([]Document, len(products))
	for i, p := range products {
		docs[i] = DocumentFor(p)
	}
	return ix.prepare(docs)
}

func (ix *Indexer) prepare(docs []Document) error {
	if ix.embedder == nil {
		return nil
	}
	corpus := make([]string, len(docs))
	for i, d := range docs {
		corpus[i] = d.Text
	}
	if err := ix.embedder.Prepare(corpus); err != nil {
		return fmt.Errorf("failed to prepare %s embedder: %w", ix.embedder.Name(), err)
	}
	return nil
}
