package knowledge

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ppiankov/veracity/internal/model"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the store described by cfg. A nil store means no knowledge
// base is configured. The returned closer releases backend resources.
func Open(cfg model.KnowledgeBaseConfig, logger *slog.Logger) (Store, io.Closer, error) {
	var (
		store  Store
		closer io.Closer = nopCloser{}
	)

	switch cfg.Type {
	case "":
		return nil, closer, nil
	case "file":
		store = NewFileStore(cfg.Path, logger)
	case "badger":
		bs, err := OpenBadgerStore(cfg.Path, logger)
		if err != nil {
			return nil, closer, err
		}
		store, closer = bs, bs
	default:
		return nil, closer, fmt.Errorf("unknown knowledge base type: %s", cfg.Type)
	}

	if cfg.CacheTTL > 0 {
		store = NewCachedStore(store, cfg.CacheTTL)
	}
	return store, closer, nil
}
