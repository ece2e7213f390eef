package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dom/jumbah-travel/internal/domain"
)

// ErrAttractionsUnavailable means the catalogue file has not been produced yet.
var ErrAttractionsUnavailable = errors.New("attractions catalogue not available")

// AttractionService serves the catalogue written by the scraper. The file is
// read on every call so a fresh scrape shows up without a restart.
type AttractionService struct {
	path string
}

func NewAttractionService(path string) *AttractionService {
	return &AttractionService{path: path}
}

func (s *AttractionService) Catalog() (domain.AttractionCatalog, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrAttractionsUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("read attractions: %w", err)
	}

	var catalog domain.AttractionCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("decode attractions: %w", err)
	}
	if catalog == nil {
		catalog = domain.AttractionCatalog{}
	}
	return catalog, nil
}
