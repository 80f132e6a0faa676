package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// EventsCSV renders records as CSV and returns the payload with a SHA-256
// checksum. Attributes are flattened into key=value pairs sorted by key.
func EventsCSV(records []EventRecord) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	if err := writer.Write([]string{"id", "type", "program", "attributes", "created_at"}); err != nil {
		return nil, "", err
	}
	for _, record := range records {
		evt, err := record.Event()
		if err != nil {
			return nil, "", err
		}
		keys := make([]string, 0, len(evt.Attributes))
		for k := range evt.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		flat := &bytes.Buffer{}
		for i, k := range keys {
			if i > 0 {
				flat.WriteByte(';')
			}
			flat.WriteString(k + "=" + evt.Attributes[k])
		}
		row := []string{
			strconv.FormatUint(record.ID, 10),
			record.Type,
			record.Program,
			flat.String(),
			record.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := writer.Write(row); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	return withChecksum(buffer.Bytes())
}

// EventsJSONL renders records as JSON Lines alongside a checksum.
func EventsJSONL(records []EventRecord) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, record := range records {
		evt, err := record.Event()
		if err != nil {
			return nil, "", err
		}
		payload := map[string]interface{}{
			"id":         record.ID,
			"type":       record.Type,
			"program":    record.Program,
			"attributes": evt.Attributes,
			"created_at": record.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := encoder.Encode(payload); err != nil {
			return nil, "", err
		}
	}
	return withChecksum(buffer.Bytes())
}

func withChecksum(data []byte) ([]byte, string, error) {
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}
