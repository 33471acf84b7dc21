package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteToTextfile writes the metrics gathered from g to path in the text exposition format
// read by the node exporter textfile collector
func WriteToTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
