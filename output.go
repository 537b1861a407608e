package main

import (
	"encoding/json"
	"fmt"
	"os"

	"pico-service/pico"
)

// emitDocument writes one snapshot document as a single JSON line to
// stdout, the contract consumers like signalk-server scrape.
func emitDocument(doc *pico.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %v", err)
	}
	if _, err := fmt.Fprintln(os.Stdout, string(data)); err != nil {
		return err
	}
	return nil
}
