package rpc

import (
	"errors"
	"strings"

	"escrowchain/integrations/exports"
)

var errEventStoreDisabled = errors.New("event store not configured")

func (c *call) listEvents(params eventsListParams) ([]exports.EventRecord, error) {
	store := c.server.eventStore()
	if store == nil {
		return nil, errEventStoreDisabled
	}
	if params.Limit < 0 {
		return nil, invalidParams("limit must not be negative")
	}
	return store.List(c.ctx, exports.Filter{
		Type:    params.Type,
		Program: params.Program,
		AfterID: params.AfterID,
		Limit:   params.Limit,
	})
}

func optionalParams(c *call, out interface{}) error {
	if len(c.req.Params) == 0 {
		return nil
	}
	return c.decode(out)
}

func handleEventsList(c *call) (interface{}, error) {
	var params eventsListParams
	if err := optionalParams(c, &params); err != nil {
		return nil, err
	}
	records, err := c.listEvents(params)
	if err != nil {
		return nil, err
	}
	out := make([]eventJSON, 0, len(records))
	for _, record := range records {
		evt, err := record.Event()
		if err != nil {
			return nil, err
		}
		out = append(out, eventJSON{
			ID:         record.ID,
			Type:       record.Type,
			Program:    record.Program,
			Attributes: evt.Attributes,
			CreatedAt:  record.CreatedAt.Unix(),
		})
	}
	return out, nil
}

// handleEventsExport renders the matching events as CSV or JSON Lines with a
// SHA-256 checksum of the payload.
func handleEventsExport(c *call) (interface{}, error) {
	var params eventsListParams
	if err := optionalParams(c, &params); err != nil {
		return nil, err
	}
	format := strings.ToLower(strings.TrimSpace(params.Format))
	if format == "" {
		format = "jsonl"
	}
	if format != "csv" && format != "jsonl" {
		return nil, invalidParams("format must be csv or jsonl")
	}
	records, err := c.listEvents(params)
	if err != nil {
		return nil, err
	}
	var (
		data     []byte
		checksum string
	)
	if format == "csv" {
		data, checksum, err = exports.EventsCSV(records)
	} else {
		data, checksum, err = exports.EventsJSONL(records)
	}
	if err != nil {
		return nil, err
	}
	return exportResult{Format: format, Count: len(records), Data: string(data), Checksum: checksum}, nil
}
