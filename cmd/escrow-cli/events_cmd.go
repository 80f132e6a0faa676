package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

func runEventsCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, eventsUsage())
		return 1
	}
	switch args[0] {
	case "list":
		return runEventsQuery("list", args[1:], stdout, stderr)
	case "export":
		return runEventsQuery("export", args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown events subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, eventsUsage())
		return 1
	}
}

func runEventsQuery(action string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("events "+action, stderr, eventsUsage)
	var eventType, program, after, limit, format, out string
	fs.StringVar(&eventType, "type", "", "only events of this type, e.g. auction.settled")
	fs.StringVar(&program, "program", "", "only events of this program or registry")
	fs.StringVar(&after, "after", "", "only events with an id above this cursor")
	fs.StringVar(&limit, "limit", "", "maximum number of events")
	if action == "export" {
		fs.StringVar(&format, "format", "jsonl", "csv or jsonl")
		fs.StringVar(&out, "out", "", "write the export body to this file")
	}
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	params := map[string]interface{}{}
	if v := strings.TrimSpace(eventType); v != "" {
		params["type"] = v
	}
	if v := strings.TrimSpace(program); v != "" {
		params["program"] = v
	}
	if v := strings.TrimSpace(after); v != "" {
		cursor, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return printError(stderr, "--after must be an unsigned integer")
		}
		params["afterId"] = cursor
	}
	if v := strings.TrimSpace(limit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return printError(stderr, "--limit must be a positive integer")
		}
		params["limit"] = n
	}
	if action == "list" {
		return invoke("events_list", params, false, stdout, stderr)
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "jsonl" {
		return printError(stderr, "--format must be csv or jsonl")
	}
	params["format"] = format
	if out == "" {
		return invoke("events_export", params, false, stdout, stderr)
	}
	result, rpcErr, err := rpcCall("events_export", params, false)
	if err != nil {
		fmt.Fprintf(stderr, "RPC call failed: %v\n", err)
		return 1
	}
	if rpcErr != nil {
		fmt.Fprintf(stderr, "RPC error %d: %s\n", rpcErr.Code, rpcErr.Message)
		return 1
	}
	var export struct {
		Count    int    `json:"count"`
		Checksum string `json:"checksum"`
		Data     string `json:"data"`
	}
	if err := json.Unmarshal(result, &export); err != nil {
		return printError(stderr, fmt.Sprintf("decode export: %v", err))
	}
	if err := os.WriteFile(out, []byte(export.Data), 0o644); err != nil {
		return printError(stderr, fmt.Sprintf("write export: %v", err))
	}
	fmt.Fprintf(stdout, "wrote %d events to %s (sha256 %s)\n", export.Count, out, export.Checksum)
	return 0
}

func eventsUsage() string {
	return strings.TrimSpace(`Usage:
  escrow-cli events <command> [flags]

Commands:
  list    List committed events ([--type] [--program] [--after] [--limit])
  export  Export events as csv or jsonl ([--format] [--out] plus list filters)
`)
}
