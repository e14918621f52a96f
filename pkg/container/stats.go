package container

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/nrhtr/dockerstats/pkg/types"
)

// decodeStatsStream decodes the runtime's JSON stats stream and delivers
// each payload on results. It returns nil on a clean end of stream (EOF or
// context cancellation) and the terminating error otherwise. The results
// channel is owned by the caller and not closed here.
func decodeStatsStream(
	ctx context.Context,
	body io.Reader,
	results chan<- types.StatsResult,
) error {
	decoder := json.NewDecoder(body)

	for {
		var payload types.StatsPayload

		if err := decoder.Decode(&payload); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("failed to decode stats payload: %w", err)
		}

		select {
		case results <- types.StatsResult{Payload: &payload}:
		case <-ctx.Done():
			return nil
		}
	}
}
