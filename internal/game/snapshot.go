package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/theirongolddev/taxgame/internal/model"
)

// SnapshotSelector finds the payload script in a generated page.
const SnapshotSelector = `script#tax-data`

// LoadSnapshot extracts the embedded ClientPayload from a generated page.
func LoadSnapshot(r io.Reader) (*model.ClientPayload, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	sel := doc.Find(SnapshotSelector)
	if sel.Length() == 0 {
		return nil, errors.New("page has no tax-data script")
	}
	var p model.ClientPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(sel.First().Text())), &p); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	if p.Budget == nil {
		return nil, errors.New("payload has no budget")
	}
	return &p, nil
}
