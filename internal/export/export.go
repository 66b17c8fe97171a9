// Package export writes query results to an object store as Parquet.
package export

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/sqlforge/sqlforge/internal/storage"
)

const contentType = "application/vnd.apache.parquet"

// exportRow is the stored shape. Result columns vary per query, so each
// row is serialized as one JSON document rather than a per-query
// schema.
type exportRow struct {
	RowIndex    int64  `parquet:"row_index"`
	PayloadJSON string `parquet:"payload_json"`
}

type Info struct {
	ExportID   string `json:"export_id"`
	ObjectPath string `json:"object_path"`
	RowCount   int    `json:"row_count"`
	SizeBytes  int64  `json:"size_bytes"`
	ETag       string `json:"etag,omitempty"`
}

// Exporter encodes result rows and uploads them under the engine's
// export prefix.
type Exporter struct {
	store      storage.ObjectStore
	engineName string
	now        func() time.Time
}

func NewExporter(store storage.ObjectStore, engineName string) *Exporter {
	return &Exporter{store: store, engineName: engineName, now: time.Now}
}

func (e *Exporter) Export(ctx context.Context, rows []map[string]any) (Info, error) {
	if len(rows) == 0 {
		return Info{}, fmt.Errorf("no rows to export")
	}

	data, err := encodeRows(rows)
	if err != nil {
		return Info{}, err
	}

	exportID := newExportID()
	objectPath, err := storage.BuildExportPath(e.engineName, exportID, e.now())
	if err != nil {
		return Info{}, err
	}

	info, err := e.store.Put(ctx, objectPath, bytes.NewReader(data), int64(len(data)),
		storage.PutOptions{ContentType: contentType})
	if err != nil {
		return Info{}, fmt.Errorf("upload export: %w", err)
	}

	return Info{
		ExportID:   exportID,
		ObjectPath: info.Key,
		RowCount:   len(rows),
		SizeBytes:  int64(len(data)),
		ETag:       info.ETag,
	}, nil
}

func encodeRows(rows []map[string]any) ([]byte, error) {
	records := make([]exportRow, 0, len(rows))
	for i, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("marshal row %d: %w", i, err)
		}
		records = append(records, exportRow{RowIndex: int64(i), PayloadJSON: string(payload)})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[exportRow](buf)
	if _, err := writer.Write(records); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func newExportID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
