package manager

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/aerius-tss/gg18-signer/internal/keygen"
	"github.com/aerius-tss/gg18-signer/internal/logging"
	"github.com/aerius-tss/gg18-signer/internal/relay"
)

var orchLogger = logging.Named("manager")

// SubmitKeygen runs spec.md §4.8's submit_keygen: n cooperative in-process
// keygen participants sharing one relay room, fanned out with a
// multierror accumulator so one bad participant doesn't prevent the rest
// from completing (§4.8: "partial failure... does not prevent successful
// participants from completing").
func SubmitKeygen(ctx context.Context, threshold, parties int) (bundles []string, err error) {
	transport := relay.NewMemoryTransport()
	roomUUID := uuid.NewString()

	type outcome struct {
		index  int
		bundle []byte
		err    error
	}
	results := make(chan outcome, parties)

	for i := 1; i <= parties; i++ {
		i := i
		go func() {
			engine := keygen.NewEngine(transport, roomUUID, keygen.Params{Threshold: threshold, Parties: parties, Index: i})
			bundle, runErr := engine.Run(ctx)
			if runErr != nil {
				results <- outcome{index: i, err: runErr}
				return
			}
			raw, marshalErr := json.Marshal(bundle)
			if marshalErr != nil {
				results <- outcome{index: i, err: marshalErr}
				return
			}
			results <- outcome{index: i, bundle: raw}
		}()
	}

	var merr *multierror.Error
	serialized := make([]string, 0, parties)
	for i := 0; i < parties; i++ {
		res := <-results
		if res.err != nil {
			merr = multierror.Append(merr, res.err)
			orchLogger.Warnw("keygen participant failed", "index", res.index, "error", res.err)
			continue
		}
		serialized = append(serialized, string(res.bundle))
	}
	if merr != nil {
		orchLogger.Errorw("submit_keygen completed with partial failures", "errors", merr.Error())
	}
	if len(serialized) == 0 {
		// every participant failed: this is not the "partial failure"
		// case §4.8 tolerates, so the caller must see it as an error.
		return nil, merr.ErrorOrNil()
	}
	return serialized, nil
}
