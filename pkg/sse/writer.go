package sse

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteEvent marshals payload as JSON and writes it to w framed as a single
// SSE event ("data: <json>\n\n"). Clients consuming the stream see one event
// per call.
//
// A write error usually means the downstream client went away; callers should
// stop the stream when one is returned.
func WriteEvent(w io.Writer, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling event payload: %w", err)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}

	return nil
}
