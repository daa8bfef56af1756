package ports

import (
	"context"
	"io"

	"gostat/domain/dataset"
)

// TabularReaderPort turns an uploaded file into a typed dataset.
// Implementations own format detection, decoding policy, and size
// limits; callers only see a dataset or a coded error.
type TabularReaderPort interface {
	Read(ctx context.Context, filename string, src io.Reader) (*dataset.Dataset, error)
}
