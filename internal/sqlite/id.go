package sqlite

import (
	"encoding/binary"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

var idMu struct {
	sync.Mutex
	last string
}

// newRecordID returns a unique record id of the form
// "<unixMillis>-<randomBase36>". The guard loop keeps ids unique even under
// rapid sequential or concurrent generation within the process.
func newRecordID() string {
	idMu.Lock()
	defer idMu.Unlock()

	for {
		id := strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + randomSuffix()
		if id != idMu.last {
			idMu.last = id
			return id
		}
	}
}

// randomSuffix returns up to 13 base36 characters of randomness.
func randomSuffix() string {
	id, err := uuid.NewRandom()
	if err != nil {
		// The system entropy source failed; nanosecond time is the only
		// remaining variance.
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36)
}
